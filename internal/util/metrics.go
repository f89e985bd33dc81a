package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of orders cancelled",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order operations",
	}, []string{"reason"})

	OrderLinesParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_lines_parsed_total",
		Help: "Pasted lines by parse outcome",
	}, []string{"result"})

	ShortagesRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortages_registered_total",
		Help: "Total number of shortage records registered",
	})

	ShortagesResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortages_resolved_total",
		Help: "Total number of shortages fully resolved by orders",
	})

	ShortagesReducedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortages_reduced_total",
		Help: "Total number of shortages partially reduced by orders",
	})

	ShortagesReopenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortages_reopened_total",
		Help: "Total number of shortages re-added by order cancellations",
	})

	ShortageUpdatesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortage_updates_failed_total",
		Help: "Shortage store updates that failed mid-cascade",
	}, []string{"action"})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shortage_reconcile_latency_seconds",
		Help:    "Latency of the per-order shortage reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
