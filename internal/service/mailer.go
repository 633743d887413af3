package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atlascoffee/internal/model"
)

// Mailer talks to an external mail-delivery API. Delivery is fire and
// forget from the order service's point of view: one attempt, no retry,
// and no tracking of whether the message was actually received.
type Mailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

func NewMailer(baseURL, apiKey, from string) *Mailer {
	return &Mailer{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type mailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(mailMessage{From: m.from, To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", m.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// SendReceipt delivers the completion receipt for an order.
func (m *Mailer) SendReceipt(ctx context.Context, order model.Order) error {
	return m.Send(ctx, order.CustomerEmail, "Your Coffee Order is Completed!", ComposeReceipt(order))
}

// ComposeReceipt renders the customer-facing completion receipt.
func ComposeReceipt(order model.Order) string {
	var lines []string
	for _, item := range order.Items {
		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, fmt.Sprintf("- %d x %s - ₱%.2f", qty, item.Name, item.Subtotal()))
	}

	return fmt.Sprintf(`Hello,

Your order has been completed successfully!

Order ID: %s
Date: %s
Payment: %s
Total: ₱%.2f

Items:
%s

Thank you for ordering with Atlas Coffee!
Enjoy your drink.
`, order.ID, order.UpdatedAt.Format("Jan 2, 2006 3:04 PM"), order.PaymentStatus, order.TotalAmount, strings.Join(lines, "\n"))
}
