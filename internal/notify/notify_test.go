package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlascoffee/internal/model"
	"atlascoffee/internal/service"
)

type fakeLister struct {
	mu     sync.Mutex
	orders []model.Order
	err    error
	calls  int
	filter service.OrderFilter
}

func (f *fakeLister) List(_ context.Context, filter service.OrderFilter) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLister) lastFilter() service.OrderFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

func (f *fakeLister) set(orders []model.Order, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
	f.err = err
}

func pendingOrder(id, email string, amount float64) model.Order {
	return model.Order{ID: id, CustomerEmail: email, TotalAmount: amount, Status: service.StatusPending}
}

func newTestService(lister *fakeLister) *Service {
	s := New(lister, nil)
	s.interval = 10 * time.Millisecond
	return s
}

func TestInactivePollerMakesNoFetches(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{pendingOrder("o1", "a@example.com", 100)}}
	s := newTestService(lister)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, lister.callCount(), "no fetches while inactive")
	assert.Empty(t, s.Notifications())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestActivateTriggersImmediatePoll(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{pendingOrder("o1", "a@example.com", 245)}}
	s := newTestService(lister)
	s.interval = time.Hour // only the activation kick can fire

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Activate()
	require.Eventually(t, func() bool { return s.Unread() == 1 }, time.Second, 5*time.Millisecond)

	notifications := s.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "o1", notifications[0].OrderID)
	assert.Equal(t, 245.0, notifications[0].Amount)
	assert.Contains(t, notifications[0].Message, "a@example.com")
	assert.Equal(t, service.StatusPending, lister.lastFilter().Status, "poller asks only for pending orders")
}

func TestPollDedupsWithinSession(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{
		pendingOrder("o1", "a@example.com", 100),
		pendingOrder("o2", "b@example.com", 150),
	}}
	s := newTestService(lister)
	s.Activate()

	require.NoError(t, s.poll(context.Background()))
	assert.Equal(t, 2, s.Unread())
	require.Len(t, s.Notifications(), 2)

	// Same pending orders again: nothing new.
	require.NoError(t, s.poll(context.Background()))
	assert.Equal(t, 2, s.Unread())
	assert.Len(t, s.Notifications(), 2)
}

func TestPollPrependsNewOrders(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{pendingOrder("o1", "a@example.com", 100)}}
	s := newTestService(lister)
	s.Activate()

	require.NoError(t, s.poll(context.Background()))

	lister.set([]model.Order{
		pendingOrder("o1", "a@example.com", 100),
		pendingOrder("o2", "b@example.com", 150),
	}, nil)
	require.NoError(t, s.poll(context.Background()))

	notifications := s.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "o2", notifications[0].OrderID, "newest notification first")
	assert.Equal(t, "o1", notifications[1].OrderID)
	assert.Equal(t, 2, s.Unread())
}

func TestPollErrorKeepsSeenSet(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{pendingOrder("o1", "a@example.com", 100)}}
	s := newTestService(lister)
	s.Activate()

	require.NoError(t, s.poll(context.Background()))
	require.Equal(t, 1, s.Unread())

	lister.set(nil, errors.New("store unavailable"))
	require.Error(t, s.poll(context.Background()))
	assert.Equal(t, 1, s.Unread(), "failed fetch does not corrupt state")

	// Store recovers with the same order: still deduped.
	lister.set([]model.Order{pendingOrder("o1", "a@example.com", 100)}, nil)
	require.NoError(t, s.poll(context.Background()))
	assert.Equal(t, 1, s.Unread())
	assert.Len(t, s.Notifications(), 1)
}

func TestMarkReadAndClear(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{
		pendingOrder("o1", "a@example.com", 100),
		pendingOrder("o2", "b@example.com", 150),
	}}
	s := newTestService(lister)
	s.Activate()
	require.NoError(t, s.poll(context.Background()))

	notifications := s.Notifications()
	require.Len(t, notifications, 2)

	require.True(t, s.MarkRead(notifications[0].ID))
	assert.Equal(t, 1, s.Unread())
	// Marking the same one again does not double-decrement.
	require.True(t, s.MarkRead(notifications[0].ID))
	assert.Equal(t, 1, s.Unread())

	assert.False(t, s.MarkRead("no-such-id"))

	s.MarkAllRead()
	assert.Equal(t, 0, s.Unread())
	for _, n := range s.Notifications() {
		assert.True(t, n.Read)
	}

	s.Clear()
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.Unread())

	// Cleared orders stay seen within the session.
	require.NoError(t, s.poll(context.Background()))
	assert.Empty(t, s.Notifications())
}

func TestDeactivateResetsSession(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{pendingOrder("o1", "a@example.com", 100)}}
	s := newTestService(lister)
	s.Activate()
	require.NoError(t, s.poll(context.Background()))
	require.Equal(t, 1, s.Unread())

	s.Deactivate()
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.Unread())

	// A fresh session notifies on the same order again.
	s.Activate()
	require.NoError(t, s.poll(context.Background()))
	assert.Equal(t, 1, s.Unread())
}

func TestPollWhileInactiveDropsResults(t *testing.T) {
	lister := &fakeLister{orders: []model.Order{pendingOrder("o1", "a@example.com", 100)}}
	s := newTestService(lister)

	// Deactivated mid-flight: fetch succeeded but the session is gone.
	require.NoError(t, s.poll(context.Background()))
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.Unread())
}
