package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Visit workflow metrics
	VisitTransitions *prometheus.CounterVec
	ActiveVisits     prometheus.Gauge

	// Saga metrics
	SagaExecutions    *prometheus.CounterVec
	SagaCompensations prometheus.Counter

	// Outbox metrics
	OutboxEventsProcessed prometheus.Counter
	OutboxEventsFailed    prometheus.Counter
	OutboxQueueSize       prometheus.Gauge

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		VisitTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_transitions_total",
			Help:      "Visit state transitions by source, target and outcome",
		}, []string{"from", "to", "outcome"}),
		ActiveVisits: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_visits",
			Help:      "Visits not yet in a terminal state",
		}),
		SagaExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_executions_total",
			Help:      "Saga executions by name and outcome",
		}, []string{"saga", "outcome"}),
		SagaCompensations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_compensations_total",
			Help:      "Total compensating actions executed",
		}),
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_queue_size",
			Help:      "Current number of pending outbox events",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
