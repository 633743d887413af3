package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlascoffee/internal/model"
)

func TestCreateCheckout(t *testing.T) {
	var got checkoutPayload
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout_sessions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"id": "cs_test_123",
				"attributes": map[string]any{
					"checkout_url": "https://checkout.example/cs_test_123",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewPaymentClient(srv.URL, "sk_test_abc", "http://localhost:5173")
	session, err := c.CreateCheckout(context.Background(), CheckoutRequest{
		Items: []model.LineItem{
			{Name: "Latte", Qty: 2, UnitPrice: 120.00},
			{Name: "Croissant", Qty: 1, UnitPrice: 85.50},
		},
		CustomerEmail: "kape@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.example/cs_test_123", session.CheckoutURL)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_abc:"))
	assert.Equal(t, wantAuth, auth)

	attrs := got.Data.Attributes
	assert.Equal(t, "PHP", attrs.Currency)
	assert.Equal(t, []string{"card", "gcash", "paymaya"}, attrs.PaymentMethodTypes)
	assert.Equal(t, "http://localhost:5173/home", attrs.SuccessURL)
	assert.Equal(t, "http://localhost:5173/payment-failed", attrs.CancelURL)
	assert.Equal(t, "kape@example.com", attrs.CustomerInfo.Email)

	// Two cart lines plus the VAT line, all in centavos.
	require.Len(t, attrs.LineItems, 3)
	assert.Equal(t, checkoutLineItem{Name: "Latte", Amount: 12000, Currency: "PHP", Quantity: 2}, attrs.LineItems[0])
	assert.Equal(t, checkoutLineItem{Name: "Croissant", Amount: 8550, Currency: "PHP", Quantity: 1}, attrs.LineItems[1])

	// Subtotal 325.50, 12% VAT = 39.06 -> 3906 centavos.
	vat := attrs.LineItems[2]
	assert.Equal(t, "VAT 12%", vat.Name)
	assert.Equal(t, int64(3906), vat.Amount)
	assert.Equal(t, 1, vat.Quantity)

	// Top-level amount matches the sum of the line items.
	var sum int64
	for _, item := range attrs.LineItems {
		sum += item.Amount * int64(item.Quantity)
	}
	assert.Equal(t, sum, attrs.Amount)
}

func TestCreateCheckoutEmptyCart(t *testing.T) {
	c := NewPaymentClient("http://unused", "sk", "http://localhost:5173")
	_, err := c.CreateCheckout(context.Background(), CheckoutRequest{})
	require.Error(t, err)
}

func TestCreateCheckoutGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"detail":"invalid key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewPaymentClient(srv.URL, "sk_bad", "http://localhost:5173")
	_, err := c.CreateCheckout(context.Background(), CheckoutRequest{
		Items: []model.LineItem{{Name: "Latte", Qty: 1, UnitPrice: 100}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
