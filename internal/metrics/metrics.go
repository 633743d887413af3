package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrdersCreated        prometheus.Counter
	StatusUpdates        *prometheus.CounterVec
	NotificationsEmitted prometheus.Counter
	ReceiptsSent         prometheus.Counter
	ReceiptsFailed       prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atlascoffee",
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atlascoffee",
			Name:      "order_status_updates_total",
			Help:      "Total number of successful order status updates.",
		}, []string{"status"}),
		NotificationsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atlascoffee",
			Name:      "notifications_emitted_total",
			Help:      "Total number of admin notifications raised by the poller.",
		}),
		ReceiptsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atlascoffee",
			Name:      "receipts_sent_total",
			Help:      "Total number of completion receipts delivered.",
		}),
		ReceiptsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atlascoffee",
			Name:      "receipts_failed_total",
			Help:      "Total number of completion receipt deliveries that failed.",
		}),
	}

	prometheus.MustRegister(
		m.OrdersCreated,
		m.StatusUpdates,
		m.NotificationsEmitted,
		m.ReceiptsSent,
		m.ReceiptsFailed,
	)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
