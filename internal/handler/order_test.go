package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlascoffee/internal/model"
	"atlascoffee/internal/service"
)

type fakeStatusUpdater struct {
	err    error
	order  *model.Order
	gotID  string
	gotNew string
}

func (f *fakeStatusUpdater) SetStatus(_ context.Context, id, newStatus string) (*model.Order, error) {
	f.gotID = id
	f.gotNew = newStatus
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func patchStatus(t *testing.T, updater StatusUpdater, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Patch("/api/orders/{id}/status", UpdateOrderStatusHandler(updater))

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/"+id+"/status", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
	}{
		{name: "success", body: `{"status":"Preparing"}`, wantStatus: http.StatusOK},
		{name: "not found", err: service.ErrOrderNotFound, body: `{"status":"Preparing"}`, wantStatus: http.StatusNotFound},
		{name: "terminal state", err: service.ErrInvalidTransition, body: `{"status":"Preparing"}`, wantStatus: http.StatusConflict},
		{name: "unknown status", err: service.ErrUnknownStatus, body: `{"status":"Shipped"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater := &fakeStatusUpdater{
				err:   tt.err,
				order: &model.Order{ID: "o1", Status: service.StatusPreparing},
			}
			rec := patchStatus(t, updater, "o1", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "o1", updater.gotID)
				assert.Equal(t, "Preparing", updater.gotNew)
				assert.Contains(t, rec.Body.String(), "Order status updated successfully")
			}
		})
	}
}

type fakeOrderReader struct {
	orders    []model.Order
	order     *model.Order
	err       error
	gotFilter service.OrderFilter
}

func (f *fakeOrderReader) GetByID(_ context.Context, id string) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeOrderReader) List(_ context.Context, filter service.OrderFilter) ([]model.Order, error) {
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func listOrders(t *testing.T, reader OrderReader, query string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/orders", ListOrdersHandler(reader))

	req := httptest.NewRequest(http.MethodGet, "/api/orders"+query, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListOrdersHandlerFilters(t *testing.T) {
	reader := &fakeOrderReader{orders: []model.Order{{ID: "o1", Status: service.StatusPending}}}

	rec := listOrders(t, reader, "?status=Pending&since=2026-08-29T10:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, service.StatusPending, reader.gotFilter.Status)
	want, _ := time.Parse(time.RFC3339, "2026-08-29T10:00:00Z")
	assert.True(t, reader.gotFilter.CreatedAfter.Equal(want))
	assert.Contains(t, rec.Body.String(), `"o1"`)
}

func TestListOrdersHandlerRejectsBadQuery(t *testing.T) {
	reader := &fakeOrderReader{}

	rec := listOrders(t, reader, "?status=Shipped")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = listOrders(t, reader, "?since=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersHandlerEmptyList(t *testing.T) {
	rec := listOrders(t, &fakeOrderReader{}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetOrderHandlerNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/orders/{id}", GetOrderHandler(&fakeOrderReader{err: service.ErrOrderNotFound}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
