// Package metrics exposes Prometheus collectors for generation calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketing_captain"

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of provider calls",
		},
		[]string{"provider", "status"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Provider call duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider"},
	)

	StepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "step_runs_total",
			Help:      "Step generations by outcome",
		},
		[]string{"step", "outcome"},
	)

	SectionPromptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "section_prompts_total",
			Help:      "Section prompts extracted from final scripts",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "active_sessions",
			Help:      "Number of live wizard sessions",
		},
	)
)

func RecordProviderCall(provider string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderCallsTotal.WithLabelValues(provider, status).Inc()
	ProviderCallDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

func RecordStepRun(step string, outcome string) {
	StepRunsTotal.WithLabelValues(step, outcome).Inc()
}

func RecordSectionPrompts(found int) {
	if found == 0 {
		SectionPromptsTotal.WithLabelValues("miss").Inc()
		return
	}
	SectionPromptsTotal.WithLabelValues("found").Add(float64(found))
}
