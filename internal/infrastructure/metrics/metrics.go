package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the playback bot
type Metrics struct {
	// Session metrics
	ActiveSessions prometheus.Gauge
	EnqueuedTotal  *prometheus.CounterVec
	AdvancedTotal  prometheus.Counter
	StoppedTotal   prometheus.Counter

	// Call transport metrics
	CallRequestErrors *prometheus.CounterVec

	// Command metrics
	CommandsTotal  *prometheus.CounterVec
	DeniedCommands *prometheus.CounterVec

	// Resolver metrics
	ResolveDuration prometheus.Histogram
	ResolveErrors   *prometheus.CounterVec

	// Persistence metrics
	FlushDuration prometheus.Histogram
	FlushErrors   prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance registered on the default registry
func NewMetrics() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rolavibe_active_sessions",
			Help: "Current number of chats with a queued or playing item",
		}),
		EnqueuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolavibe_enqueued_total",
				Help: "Total number of items added to chat queues",
			},
			[]string{"kind"},
		),
		AdvancedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolavibe_queue_advanced_total",
			Help: "Total number of queue advances after a finished or skipped item",
		}),
		StoppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolavibe_sessions_stopped_total",
			Help: "Total number of sessions stopped on request",
		}),
		CallRequestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolavibe_call_request_errors_total",
				Help: "Total number of failed call transport requests",
			},
			[]string{"action"},
		),
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolavibe_commands_total",
				Help: "Total number of handled commands",
			},
			[]string{"command"},
		),
		DeniedCommands: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolavibe_denied_commands_total",
				Help: "Total number of commands rejected by the authorization gate",
			},
			[]string{"reason"},
		),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rolavibe_resolve_duration_seconds",
			Help:    "Duration of media resolution in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		}),
		ResolveErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rolavibe_resolve_errors_total",
				Help: "Total number of failed media resolutions",
			},
			[]string{"error_type"},
		),
		FlushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rolavibe_state_flush_duration_seconds",
			Help:    "Duration of state flushes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		FlushErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolavibe_state_flush_errors_total",
			Help: "Total number of failed state flushes",
		}),
	}
}
