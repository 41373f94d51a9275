package cart

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Summary is the aggregate view shown in the navbar and on the cart page
type Summary struct {
	TotalItems     int     `json:"total_items"`
	TotalPrice     float64 `json:"total_price"`
	ItemCount      int     `json:"item_count"`
	IsEmpty        bool    `json:"is_empty"`
	FormattedTotal string  `json:"formatted_total"`
}

// ItemView is the per-product view used by catalog cards
type ItemView struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	InCart   bool   `json:"in_cart"`
}

// Export is a point in time copy of the cart, suitable for building orders
type Export struct {
	Items     []LineItem `json:"items"`
	Summary   Summary    `json:"summary"`
	Timestamp time.Time  `json:"timestamp"`
}

func (s State) TotalPrice() float64 {
	var total float64
	for _, it := range s.Items {
		total += it.Subtotal()
	}
	return total
}

func (s State) TotalItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

func (s State) DistinctItemCount() int {
	return len(s.Items)
}

// QuantityOf returns the quantity held for id, or 0
func (s State) QuantityOf(id string) int {
	if i := indexOf(s.Items, id); i >= 0 {
		return s.Items[i].Quantity
	}
	return 0
}

func (s State) Contains(id string) bool {
	return indexOf(s.Items, id) >= 0
}

func (s State) Summary() Summary {
	total := s.TotalPrice()
	return Summary{
		TotalItems:     s.TotalItemCount(),
		TotalPrice:     total,
		ItemCount:      s.DistinctItemCount(),
		IsEmpty:        len(s.Items) == 0,
		FormattedTotal: FormatRupees(total),
	}
}

func (s State) ItemView(id string) ItemView {
	q := s.QuantityOf(id)
	return ItemView{ID: id, Quantity: q, InCart: q > 0}
}

// FormatRupees renders amount as Indian rupees with lakh/crore digit grouping
// and at most two fraction digits, e.g. 1234567.5 -> "₹12,34,567.5".
func FormatRupees(amount float64) string {
	return "₹" + FormatIndian(amount)
}

// FormatIndian groups the integer part as 12,34,56,789 (last three digits,
// then pairs) and keeps up to two fraction digits without trailing zeros.
func FormatIndian(amount float64) string {
	neg := amount < 0
	amount = math.Abs(amount)
	paise := int64(math.Round(amount * 100))
	whole := strconv.FormatInt(paise/100, 10)
	frac := paise % 100

	var b strings.Builder
	if neg && paise != 0 {
		b.WriteByte('-')
	}
	if len(whole) <= 3 {
		b.WriteString(whole)
	} else {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		groups := make([]string, 0, len(head)/2+2)
		if len(head)%2 == 1 {
			groups = append(groups, head[:1])
			head = head[1:]
		}
		for i := 0; i < len(head); i += 2 {
			groups = append(groups, head[i:i+2])
		}
		b.WriteString(strings.Join(append(groups, tail), ","))
	}
	if frac != 0 {
		f := strconv.FormatInt(frac+100, 10)[1:]
		b.WriteByte('.')
		b.WriteString(strings.TrimRight(f, "0"))
	}
	return b.String()
}
