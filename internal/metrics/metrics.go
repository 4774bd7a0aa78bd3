// Package metrics holds the Prometheus collectors shared across the service.
// All collectors are registered on the default registry and served at /metrics.
//
// Metrics:
//   - coach_http_request_duration_seconds{route,method,status}
//   - coach_radar_actions_total{action,result}
//   - coach_goal_mutations_total{op,result}
//   - coach_trace_exports_total{result}
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	RadarActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_radar_actions_total",
			Help: "Total number of radar agent requests handled",
		},
		[]string{"action", "result"}, // result: "ok" or "error"
	)

	GoalMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_goal_mutations_total",
			Help: "Total number of goal agent runs",
		},
		[]string{"op", "result"}, // result: "ok", "invalid", "not_found" or "error"
	)

	TraceExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_trace_exports_total",
			Help: "Total number of agent trace export attempts",
		},
		[]string{"result"},
	)
)

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
)
