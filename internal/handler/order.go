package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"atlascoffee/internal/model"
	"atlascoffee/internal/service"
)

// OrderReader is the read side of the order store used by admin handlers.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filter service.OrderFilter) ([]model.Order, error)
}

// StatusUpdater applies the order status state machine.
type StatusUpdater interface {
	SetStatus(ctx context.Context, id, newStatus string) (*model.Order, error)
}

func ListOrdersHandler(orders OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter service.OrderFilter

		if status := r.URL.Query().Get("status"); status != "" {
			if !service.KnownStatus(status) {
				http.Error(w, "unknown status", http.StatusBadRequest)
				return
			}
			filter.Status = status
		}

		if since := r.URL.Query().Get("since"); since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				http.Error(w, "since must be RFC3339", http.StatusBadRequest)
				return
			}
			filter.CreatedAfter = t
		}

		list, err := orders.List(r.Context(), filter)
		if err != nil {
			slog.Error("order list failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if list == nil {
			list = []model.Order{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}

func GetOrderHandler(orders OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		order, err := orders.GetByID(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			default:
				slog.Error("order get failed", "id", id, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order)
	}
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type statusUpdateResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

func UpdateOrderStatusHandler(orders StatusUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req statusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		order, err := orders.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrOrderNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			case errors.Is(err, service.ErrUnknownStatus):
				http.Error(w, "unknown order status", http.StatusBadRequest)
			case errors.Is(err, service.ErrInvalidTransition):
				http.Error(w, "order is already completed or cancelled", http.StatusConflict)
			default:
				slog.Error("status update failed", "id", id, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusUpdateResponse{
			Message: "Order status updated successfully",
			Order:   order,
		})
	}
}
