package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmer_assist_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmer_assist_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	FlowRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmer_assist_flow_requests_total",
		Help: "Total flow executions by outcome",
	}, []string{"flow", "status"})

	FlowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmer_assist_flow_duration_seconds",
		Help:    "Flow execution latency including the model call",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"flow"})

	MarketFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmer_assist_market_fallback_total",
		Help: "Market lookups served from the fallback dataset",
	}, []string{"reason"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmer_assist_notifications_total",
		Help: "Notifications accepted by category",
	}, []string{"category"})
)
