package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeApplied  = "applied"
	OutcomeNoop     = "noop"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "questboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	TaskCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questboard_task_completions_total",
			Help: "Task completion attempts by outcome",
		},
		[]string{"outcome"}, // applied, noop, failed
	)

	RewardsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questboard_rewards_awarded_total",
			Help: "Reward units granted by completed tasks",
		},
		[]string{"kind"}, // bonus_points, xp
	)

	BufferedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questboard_buffered_operations_total",
			Help: "Operations written to the offline buffer",
		},
		[]string{"entity", "operation"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "questboard_store_query_duration_seconds",
			Help:    "Duration of primary store queries",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"outcome"}, // ok, error
	)

	BufferReplays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questboard_buffer_replays_total",
			Help: "Buffered writes replayed against the primary store",
		},
		[]string{"entity", "outcome"}, // applied, failed
	)
)
