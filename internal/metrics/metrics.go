// Package metrics defines Prometheus metrics for shopify-admin.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopify"

// Gateway HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of gateway HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of gateway HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last /healthz probe succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last /readyz probe succeeded (1) or failed (0).",
	})
)

// Admin API client metrics.
var (
	AdminAPIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "admin_api_request_duration_seconds",
		Help:      "Duration of Shopify Admin API calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})

	AdminAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_api_requests_total",
		Help:      "Total Shopify Admin API calls by method and status (\"error\" for transport failures).",
	}, []string{"method", "status"})

	AdminAPICallLimitRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "admin_api_call_limit_ratio",
		Help:      "Fill ratio of the shop's API call bucket from the last response (0-1).",
	})

	TokenExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_exchanges_total",
		Help:      "Total OAuth code exchanges by result.",
	}, []string{"result"})
)

// Signature metrics.
var (
	SignatureChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signature_checks_total",
		Help:      "Total signature checks by kind (query, body) and result.",
	}, []string{"kind", "result"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_received_total",
		Help:      "Total webhook deliveries received by topic and verification result.",
	}, []string{"topic", "result"})
)
