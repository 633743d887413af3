package model

import (
	"time"
)

// SentinelEmail marks orders placed without a known customer address.
const SentinelEmail = "N/A"

type LineItem struct {
	Name      string   `json:"name"`
	Qty       int      `json:"qty"`
	UnitPrice float64  `json:"unit_price"`
	Size      string   `json:"size"`
	Sugar     string   `json:"sugar"`
	Addons    []string `json:"addons"`
}

// Subtotal is the line's contribution to the order total, before VAT.
func (i LineItem) Subtotal() float64 {
	qty := i.Qty
	if qty < 1 {
		qty = 1
	}
	return i.UnitPrice * float64(qty)
}

type Order struct {
	ID                string     `json:"id"`
	CheckoutReference string     `json:"checkout_reference,omitempty"`
	CustomerEmail     string     `json:"customer_email"`
	Items             []LineItem `json:"items"`
	TotalAmount       float64    `json:"total_amount"`
	Fulfillment       string     `json:"fulfillment"`    // Dine In, Pick Up
	PaymentStatus     string     `json:"payment_status"` // Paid, Unpaid
	Status            string     `json:"status"`         // Pending, Preparing, Ready, Completed, Cancelled
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
