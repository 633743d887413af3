package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"atlascoffee/internal/model"
	"atlascoffee/internal/service"
)

// CheckoutCreator opens a checkout session with the payment gateway.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutSession, error)
}

// OrderCreator is the idempotent order-creation side of the order store.
type OrderCreator interface {
	Create(ctx context.Context, in service.NewOrder) (*model.Order, bool, error)
}

type createCheckoutRequest struct {
	Cart          []model.LineItem `json:"cart"`
	CustomerEmail string           `json:"customer_email"`
}

func CreateCheckoutHandler(payments CheckoutCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if len(req.Cart) == 0 {
			http.Error(w, "cart is empty", http.StatusBadRequest)
			return
		}

		session, err := payments.CreateCheckout(r.Context(), service.CheckoutRequest{
			Items:         req.Cart,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			slog.Error("checkout creation failed", "error", err)
			http.Error(w, "payment creation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(session)
	}
}

type confirmRequest struct {
	CheckoutID    string           `json:"checkout_id"`
	Cart          []model.LineItem `json:"cart"`
	Fulfillment   string           `json:"fulfillment"`
	CustomerEmail string           `json:"customer_email"`
}

type confirmResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

// ConfirmPaymentHandler records the order after a successful checkout.
// Replays of the same checkout id return the already-saved order with 200
// instead of creating a duplicate.
func ConfirmPaymentHandler(orders OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if len(req.Cart) == 0 {
			http.Error(w, "cart is empty", http.StatusBadRequest)
			return
		}

		order, created, err := orders.Create(r.Context(), service.NewOrder{
			CheckoutReference: req.CheckoutID,
			CustomerEmail:     req.CustomerEmail,
			Items:             req.Cart,
			Fulfillment:       req.Fulfillment,
			PaymentStatus:     "Paid",
		})
		if err != nil {
			slog.Error("order save failed", "error", err)
			http.Error(w, "failed to save order", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if !created {
			_ = json.NewEncoder(w).Encode(confirmResponse{Message: "Order already exists", Order: order})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(confirmResponse{Message: "Order saved successfully", Order: order})
	}
}
