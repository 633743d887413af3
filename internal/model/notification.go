package model

import "time"

// Notification is process-local admin state raised by the order poller.
// It is never persisted; the set resets with the admin session.
type Notification struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Message   string    `json:"message"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}
