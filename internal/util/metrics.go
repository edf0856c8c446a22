package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of successful checkouts",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the checkout transaction",
		Buckets: prometheus.DefBuckets,
	})

	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of cart line-item adds (including merges)",
	})

	StockRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_rejections_total",
		Help: "Total number of requests rejected for insufficient stock",
	}, []string{"stage"})

	UsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "Total number of user registrations",
	})

	UsersVerifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_verified_total",
		Help: "Total number of verified email confirmations",
	})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of emails sent by the notification worker",
	}, []string{"kind", "status"})

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
