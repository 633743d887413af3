// Package notify raises in-process admin notifications for newly placed
// orders. There is no push channel: a ticker loop polls the order store for
// Pending orders and diffs against a seen set scoped to the current admin
// session. State lives only in memory and resets on deactivation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"atlascoffee/internal/metrics"
	"atlascoffee/internal/model"
	"atlascoffee/internal/service"
)

// OrderLister is the slice of the order store the poller needs.
type OrderLister interface {
	List(ctx context.Context, filter service.OrderFilter) ([]model.Order, error)
}

type Service struct {
	orders   OrderLister
	metrics  *metrics.Metrics
	interval time.Duration
	kick     chan struct{}

	mu     sync.Mutex
	active bool
	seen   map[string]struct{}
	items  []model.Notification
	unread int
}

func New(orders OrderLister, m *metrics.Metrics) *Service {
	return &Service{
		orders:   orders,
		metrics:  m,
		interval: 5 * time.Second,
		kick:     make(chan struct{}, 1),
		seen:     make(map[string]struct{}),
	}
}

// Run polls until ctx is cancelled. Ticks never overlap: each poll runs to
// completion before the next is considered. While the service is inactive
// no fetch is made at all.
func (s *Service) Run(ctx context.Context) {
	slog.Info("starting notification poller", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("notification poller stopped")
			return
		case <-s.kick:
		case <-ticker.C:
		}

		if !s.isActive() {
			continue
		}

		if err := s.poll(ctx); err != nil {
			// Swallowed: the seen set is untouched and the next tick retries.
			slog.Error("notification poll failed", "error", err)
		}
	}
}

// Activate starts notifying and triggers an immediate poll so the admin
// does not wait a full interval after opening the dashboard.
func (s *Service) Activate() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Deactivate stops polling and discards all session state, so a later
// activation starts from an empty seen set and notifies afresh.
func (s *Service) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.seen = make(map[string]struct{})
	s.items = nil
	s.unread = 0
}

func (s *Service) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Service) poll(ctx context.Context) error {
	orders, err := s.orders.List(ctx, service.OrderFilter{Status: service.StatusPending})
	if err != nil {
		return fmt.Errorf("list pending orders: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		// Deactivated while the fetch was in flight; drop the results.
		return nil
	}

	var added int
	for _, order := range orders {
		if _, ok := s.seen[order.ID]; ok {
			continue
		}
		s.seen[order.ID] = struct{}{}
		notification := model.Notification{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			Message:   fmt.Sprintf("New order from %s", order.CustomerEmail),
			Amount:    order.TotalAmount,
			CreatedAt: time.Now(),
		}
		s.items = append([]model.Notification{notification}, s.items...)
		added++
	}

	if added > 0 {
		s.unread += added
		if s.metrics != nil {
			s.metrics.NotificationsEmitted.Add(float64(added))
		}
		slog.Info("new orders observed", "count", added, "unread", s.unread)
	}

	return nil
}

// Notifications returns the current list, newest first.
func (s *Service) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Service) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead marks one notification read; it reports whether id was found.
func (s *Service) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if !s.items[i].Read {
			s.items[i].Read = true
			s.unread--
		}
		return true
	}
	return false
}

func (s *Service) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Read = true
	}
	s.unread = 0
}

// Clear empties the notification list but keeps the seen set, so cleared
// orders are not re-notified within the session.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.unread = 0
}
