package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API client metrics
var (
	// APICalls tracks total backend calls by method, route, and status
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentapp_api_calls_total",
			Help: "Total backend API calls by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// APIDuration tracks backend call latency
	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "mentapp_api_call_duration_ms",
			Help:                            "Backend API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// APIErrors tracks transport-level failures by route
	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentapp_api_errors_total",
			Help: "Total transport-level API failures by method and route",
		},
		[]string{"method", "route"},
	)
)

// Token refresh metrics
var (
	// TokenRefreshes tracks refresh attempts by outcome
	// (success, failed, no_refresh_token)
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentapp_token_refreshes_total",
			Help: "Total access token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)
)
