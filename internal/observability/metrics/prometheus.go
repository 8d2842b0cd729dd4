// Package metrics provides Prometheus metrics for the triage engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	TriageTurnsProcessed *prometheus.CounterVec
	RedFlagsDetected     prometheus.Counter
	AssessorFallbacks    prometheus.Counter
	TurnDuration         prometheus.Histogram
	RemindersCreated     prometheus.Counter
	TemperatureReadings  prometheus.Counter
	CaseEventsProduced   prometheus.Counter
	CaseEventsConsumed   prometheus.Counter
	OutboxPending        prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		TriageTurnsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_turns_processed_total",
			Help: "Total triage turns processed by resulting level",
		}, []string{"level"}),
		RedFlagsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_red_flags_detected_total",
			Help: "Total emergency red flags detected",
		}),
		AssessorFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_assessor_fallbacks_total",
			Help: "Total turns answered by the deterministic fallback",
		}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_turn_duration_seconds",
			Help:    "Triage turn processing duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		RemindersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medication_reminders_created_total",
			Help: "Total medication reminders created",
		}),
		TemperatureReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temperature_readings_total",
			Help: "Total temperature readings logged",
		}),
		CaseEventsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "case_events_produced_total",
			Help: "Total case events staged to the outbox for publication",
		}),
		CaseEventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "case_events_consumed_total",
			Help: "Total case events consumed by the trends worker",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.TriageTurnsProcessed,
		m.RedFlagsDetected,
		m.AssessorFallbacks,
		m.TurnDuration,
		m.RemindersCreated,
		m.TemperatureReadings,
		m.CaseEventsProduced,
		m.CaseEventsConsumed,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
