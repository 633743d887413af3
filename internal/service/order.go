package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"atlascoffee/internal/metrics"
	"atlascoffee/internal/model"
)

const (
	StatusPending   = "Pending"
	StatusPreparing = "Preparing"
	StatusReady     = "Ready"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// VATRate is applied on top of the line-item subtotal at order creation.
const VATRate = 0.12

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("order is in a terminal state")
	ErrUnknownStatus     = errors.New("unknown order status")
)

func KnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are accepted from s.
func Terminal(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether setting an order in state from to state to
// is accepted. Any move out of a terminal state is rejected; everything
// else, including skipping ahead and cancelling, is allowed.
func CanTransition(from, to string) bool {
	return KnownStatus(to) && !Terminal(from)
}

// ReceiptSender delivers a completion receipt for an order. Failures are the
// sender's to report; the order service only logs them.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, order model.Order) error
}

// OrderFilter narrows List; zero values mean "no constraint". Predicates
// are combined with AND.
type OrderFilter struct {
	Status       string
	CreatedAfter time.Time
}

// OrderStore persists orders. SetStatusChecked enforces the transition
// rules atomically with the write and returns ErrInvalidTransition when the
// order is already terminal; lookups return ErrOrderNotFound when the id or
// reference does not resolve.
type OrderStore interface {
	Insert(ctx context.Context, order model.Order) (*model.Order, error)
	FindByReference(ctx context.Context, reference string) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	CompletedByEmail(ctx context.Context, email string, limit int) ([]model.Order, error)
	SetStatusChecked(ctx context.Context, id, newStatus string) (*model.Order, error)
}

type OrderService struct {
	store   OrderStore
	mailer  ReceiptSender
	metrics *metrics.Metrics
}

func NewOrderService(store OrderStore, mailer ReceiptSender, m *metrics.Metrics) *OrderService {
	return &OrderService{store: store, mailer: mailer, metrics: m}
}

// NewOrder is the input to Create; everything else on the order row is
// derived or defaulted.
type NewOrder struct {
	CheckoutReference string
	CustomerEmail     string
	Items             []model.LineItem
	Fulfillment       string
	PaymentStatus     string
}

// Total is the order amount at creation time: line-item subtotal plus VAT,
// rounded to centavos. It is never recomputed after the order is stored.
func (n NewOrder) Total() float64 {
	var subtotal float64
	for _, item := range n.Items {
		subtotal += item.Subtotal()
	}
	return math.Round(subtotal*(1+VATRate)*100) / 100
}

// Create stores a new order in Pending state. When a checkout reference is
// supplied and an order for it already exists, the existing order is
// returned and created is false; a payment confirmation can therefore be
// replayed without duplicating the order.
func (s *OrderService) Create(ctx context.Context, in NewOrder) (*model.Order, bool, error) {
	if len(in.Items) == 0 {
		return nil, false, errors.New("order has no items")
	}

	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" {
		email = model.SentinelEmail
	}
	fulfillment := in.Fulfillment
	if fulfillment == "" {
		fulfillment = "Dine In"
	}
	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = "Paid"
	}

	if in.CheckoutReference != "" {
		existing, err := s.store.FindByReference(ctx, in.CheckoutReference)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, false, fmt.Errorf("check checkout reference: %w", err)
		}
	}

	order, err := s.store.Insert(ctx, model.Order{
		CheckoutReference: in.CheckoutReference,
		CustomerEmail:     email,
		Items:             in.Items,
		TotalAmount:       in.Total(),
		Fulfillment:       fulfillment,
		PaymentStatus:     paymentStatus,
		Status:            StatusPending,
	})
	if err != nil {
		// A concurrent confirm with the same reference can slip between the
		// check and the insert; the unique index holds, so hand back the
		// winner's order instead of the violation.
		if in.CheckoutReference != "" && isUniqueViolation(err) {
			if existing, ferr := s.store.FindByReference(ctx, in.CheckoutReference); ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("insert order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	return order, true, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

func (s *OrderService) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return s.store.GetByID(ctx, id)
}

func (s *OrderService) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	return s.store.List(ctx, filter)
}

// CompletedByEmail returns a customer's most recent completed orders,
// newest first. The chatbot's recommendation heuristic reads these.
func (s *OrderService) CompletedByEmail(ctx context.Context, email string, limit int) ([]model.Order, error) {
	return s.store.CompletedByEmail(ctx, email, limit)
}

// SetStatus moves an order to newStatus. Updates out of Completed or
// Cancelled are rejected with ErrInvalidTransition. A successful move into
// Completed dispatches the receipt mailer after the write is durable;
// mailer failures never surface here, and orders without a customer
// address (the "N/A" sentinel) are not dispatched at all.
func (s *OrderService) SetStatus(ctx context.Context, id, newStatus string) (*model.Order, error) {
	if !KnownStatus(newStatus) {
		return nil, ErrUnknownStatus
	}

	order, err := s.store.SetStatusChecked(ctx, id, newStatus)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusUpdates.WithLabelValues(newStatus).Inc()
	}
	slog.Info("order status updated", "id", order.ID, "status", newStatus)

	if newStatus == StatusCompleted && s.mailer != nil && order.CustomerEmail != model.SentinelEmail {
		go s.sendReceipt(*order)
	}

	return order, nil
}

func (s *OrderService) sendReceipt(order model.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.mailer.SendReceipt(ctx, order); err != nil {
		slog.Error("receipt delivery failed", "id", order.ID, "to", order.CustomerEmail, "error", err)
		if s.metrics != nil {
			s.metrics.ReceiptsFailed.Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.ReceiptsSent.Inc()
	}
	slog.Info("receipt sent", "id", order.ID, "to", order.CustomerEmail)
}
