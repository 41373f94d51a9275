// Package cart holds the shopping cart state machine, its derived views and the
// adapter that persists it between sessions.
package cart

import (
	"errors"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
)

// MaxQuantity is the most units of one product a cart may hold
const MaxQuantity = 10

var (
	ErrInvalidProduct = errors.New("cart: product has no identifier")
	ErrUnknownCommand = errors.New("cart: unknown command")
)

// LineItem is one distinct product in the cart. The embedded product is a copy
// taken when the item was first added and is never refreshed from the catalog.
type LineItem struct {
	model.Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price * quantity
func (li LineItem) Subtotal() float64 {
	return li.Price * float64(li.Quantity)
}

// State is the cart root value. Loading is true until hydration completes.
type State struct {
	Items   []LineItem `json:"items"`
	Loading bool       `json:"is_loading"`
}

// Command is a cart transition. The set is closed to this package.
type Command interface {
	Name() string
	isCommand()
}

type AddItem struct {
	Product  model.Product
	Quantity int
}

type RemoveItem struct{ ID string }

type SetQuantity struct {
	ID       string
	Quantity int
}

type IncrementQuantity struct{ ID string }

type DecrementQuantity struct{ ID string }

type Clear struct{}

// hydrate merges a persisted item list into the state
type hydrate struct{ Items []LineItem }

// ready marks hydration as finished
type ready struct{}

func (AddItem) Name() string           { return "add_item" }
func (RemoveItem) Name() string        { return "remove_item" }
func (SetQuantity) Name() string       { return "set_quantity" }
func (IncrementQuantity) Name() string { return "increment_quantity" }
func (DecrementQuantity) Name() string { return "decrement_quantity" }
func (Clear) Name() string             { return "clear" }
func (hydrate) Name() string           { return "hydrate" }
func (ready) Name() string             { return "ready" }

func (AddItem) isCommand()           {}
func (RemoveItem) isCommand()        {}
func (SetQuantity) isCommand()       {}
func (IncrementQuantity) isCommand() {}
func (DecrementQuantity) isCommand() {}
func (Clear) isCommand()             {}
func (hydrate) isCommand()           {}
func (ready) isCommand()             {}

// Apply returns the state that results from running cmd against s. It never
// mutates s. On error the returned state is s unchanged.
func Apply(s State, cmd Command) (State, error) {
	switch c := cmd.(type) {
	case AddItem:
		if c.Product.ID == "" {
			return s, ErrInvalidProduct
		}
		qty := c.Quantity
		if qty < 1 {
			qty = 1
		}
		if i := indexOf(s.Items, c.Product.ID); i >= 0 {
			return s.withItem(i, clamp(s.Items[i].Quantity+qty)), nil
		}
		items := make([]LineItem, len(s.Items), len(s.Items)+1)
		copy(items, s.Items)
		s.Items = append(items, LineItem{Product: c.Product, Quantity: clamp(qty)})
		return s, nil

	case RemoveItem:
		return s.without(c.ID), nil

	case SetQuantity:
		if c.Quantity <= 0 {
			return s.without(c.ID), nil
		}
		if i := indexOf(s.Items, c.ID); i >= 0 {
			return s.withItem(i, clamp(c.Quantity)), nil
		}
		return s, nil

	case IncrementQuantity:
		if i := indexOf(s.Items, c.ID); i >= 0 {
			return s.withItem(i, clamp(s.Items[i].Quantity+1)), nil
		}
		return s, nil

	case DecrementQuantity:
		i := indexOf(s.Items, c.ID)
		if i < 0 {
			return s, nil
		}
		if s.Items[i].Quantity <= 1 {
			return s.without(c.ID), nil
		}
		return s.withItem(i, s.Items[i].Quantity-1), nil

	case Clear:
		s.Items = []LineItem{}
		return s, nil

	case hydrate:
		return s.merged(c.Items), nil

	case ready:
		s.Loading = false
		return s, nil
	}
	return s, ErrUnknownCommand
}

func clamp(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func indexOf(items []LineItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) withItem(i, qty int) State {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	items[i].Quantity = qty
	s.Items = items
	return s
}

func (s State) without(id string) State {
	i := indexOf(s.Items, id)
	if i < 0 {
		return s
	}
	items := make([]LineItem, 0, len(s.Items)-1)
	items = append(items, s.Items[:i]...)
	s.Items = append(items, s.Items[i+1:]...)
	return s
}

// merged places the saved items first and folds in anything added while the
// saved cart was loading. Saved entries that break the cart invariants (no id,
// duplicate id, quantity below 1) are dropped; quantities above the cap are
// clamped.
func (s State) merged(saved []LineItem) State {
	items := make([]LineItem, 0, len(saved)+len(s.Items))
	for _, it := range saved {
		if it.ID == "" || it.Quantity < 1 || indexOf(items, it.ID) >= 0 {
			continue
		}
		it.Quantity = clamp(it.Quantity)
		items = append(items, it)
	}
	for _, it := range s.Items {
		if i := indexOf(items, it.ID); i >= 0 {
			items[i].Quantity = clamp(items[i].Quantity + it.Quantity)
			continue
		}
		items = append(items, it)
	}
	s.Items = items
	return s
}
