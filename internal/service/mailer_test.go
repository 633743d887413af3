package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlascoffee/internal/model"
)

func completedOrder() model.Order {
	return model.Order{
		ID:            "7a1d2b9e-0000-4000-8000-000000000001",
		CustomerEmail: "kape@example.com",
		Items: []model.LineItem{
			{Name: "Latte", Qty: 1, UnitPrice: 118.75},
			{Name: "Croissant", Qty: 1, UnitPrice: 100.00},
		},
		TotalAmount:   245.00,
		PaymentStatus: "Paid",
		Status:        StatusCompleted,
		UpdatedAt:     time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC),
	}
}

func TestMailerSendReceipt(t *testing.T) {
	var calls int
	var got mailMessage
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, "test-key", "orders@atlascoffee.example")
	err := m.SendReceipt(context.Background(), completedOrder())
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "exactly one delivery attempt per call")
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "orders@atlascoffee.example", got.From)
	assert.Equal(t, "kape@example.com", got.To)
	assert.Equal(t, "Your Coffee Order is Completed!", got.Subject)

	assert.Contains(t, got.Body, "Total: ₱245.00")
	assert.Contains(t, got.Body, "1 x Latte - ₱118.75")
	assert.Contains(t, got.Body, "1 x Croissant - ₱100.00")
	assert.Contains(t, got.Body, "Payment: Paid")
	assert.Contains(t, got.Body, "7a1d2b9e-0000-4000-8000-000000000001")
}

func TestMailerSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "delivery provider down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, "test-key", "orders@atlascoffee.example")
	err := m.SendReceipt(context.Background(), completedOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestComposeReceiptDefaultsQty(t *testing.T) {
	order := completedOrder()
	order.Items = []model.LineItem{{Name: "Americano", Qty: 0, UnitPrice: 50}}
	body := ComposeReceipt(order)
	assert.Contains(t, body, "1 x Americano - ₱50.00")
}
