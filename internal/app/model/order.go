package model

import "time"

// Customer is the contact block collected by the checkout form
type Customer struct {
	Name    string `json:"name" binding:"required,min=2"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required,len=10,number"`
	Address string `json:"address" binding:"required,min=10"`
	City    string `json:"city" binding:"required"`
}

// OrderLine is one item of an order snapshot
type OrderLine struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Period    string  `json:"period,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// LineTotal returns price * quantity
func (l OrderLine) LineTotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Order is the snapshot captured at submission time. It is never stored.
type Order struct {
	OrderNumber string      `json:"order_number"`
	Items       []OrderLine `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Date        time.Time   `json:"date"`
}
