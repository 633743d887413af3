package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"atlascoffee/internal/model"
)

// PaymentClient creates checkout sessions with a PayMongo-style gateway.
// The gateway itself is opaque: we post a session, get back a redirect URL,
// and later learn the session id again on the confirm call.
type PaymentClient struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewPaymentClient(baseURL, secretKey, frontendOrigin string) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		secretKey:  secretKey,
		successURL: frontendOrigin + "/home",
		cancelURL:  frontendOrigin + "/payment-failed",
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type CheckoutRequest struct {
	Items         []model.LineItem
	CustomerEmail string
	Description   string
}

type CheckoutSession struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

type checkoutLineItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type checkoutPayload struct {
	Data struct {
		Attributes struct {
			Amount             int64              `json:"amount"`
			Currency           string             `json:"currency"`
			PaymentMethodTypes []string           `json:"payment_method_types"`
			SuccessURL         string             `json:"success_url"`
			CancelURL          string             `json:"cancel_url"`
			CustomerInfo       struct {
				Email string `json:"email"`
			} `json:"customer_info"`
			Description string             `json:"description"`
			LineItems   []checkoutLineItem `json:"line_items"`
		} `json:"attributes"`
	} `json:"data"`
}

type checkoutResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			CheckoutURL string `json:"checkout_url"`
		} `json:"attributes"`
	} `json:"data"`
}

func centavos(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateCheckout opens a checkout session for the cart. Line amounts are
// sent in centavos; VAT is added as its own line so the gateway total
// matches the order total we will store on confirmation.
func (c *PaymentClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	email := req.CustomerEmail
	if email == "" {
		email = model.SentinelEmail
	}

	var subtotal float64
	items := make([]checkoutLineItem, 0, len(req.Items)+1)
	for _, item := range req.Items {
		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		subtotal += item.Subtotal()
		items = append(items, checkoutLineItem{
			Name:     item.Name,
			Amount:   centavos(item.UnitPrice),
			Currency: "PHP",
			Quantity: qty,
		})
	}
	if vat := centavos(subtotal * VATRate); vat > 0 {
		items = append(items, checkoutLineItem{
			Name:     fmt.Sprintf("VAT %.0f%%", VATRate*100),
			Amount:   vat,
			Currency: "PHP",
			Quantity: 1,
		})
	}

	var total int64
	for _, item := range items {
		total += item.Amount * int64(item.Quantity)
	}

	var payload checkoutPayload
	attrs := &payload.Data.Attributes
	attrs.Amount = total
	attrs.Currency = "PHP"
	attrs.PaymentMethodTypes = []string{"card", "gcash", "paymaya"}
	attrs.SuccessURL = c.successURL
	attrs.CancelURL = c.cancelURL
	attrs.CustomerInfo.Email = email
	attrs.Description = req.Description
	if attrs.Description == "" {
		attrs.Description = fmt.Sprintf("Coffee Order - %s", email)
	}
	attrs.LineItems = items

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/checkout_sessions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var res checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &CheckoutSession{ID: res.Data.ID, CheckoutURL: res.Data.Attributes.CheckoutURL}, nil
}
