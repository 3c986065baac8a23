package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
)

// WorkflowMetrics holds the engine's Prometheus collectors.
// A nil *WorkflowMetrics is valid and records nothing.
type WorkflowMetrics struct {
	runsTotal     *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	queueDropped  prometheus.Counter
	handlerErrors *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewWorkflowMetrics creates the collectors and registers them on reg.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	m := &WorkflowMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadpilot_workflow_runs_total",
				Help: "Total number of workflow runs by outcome",
			},
			[]string{"entity_type", "trigger_type", "outcome"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadpilot_workflow_actions_total",
				Help: "Total number of dispatched workflow actions",
			},
			[]string{"action", "success"},
		),
		queueDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leadpilot_event_queue_dropped_total",
				Help: "Events dropped because the async queue was full",
			},
		),
		handlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadpilot_event_handler_errors_total",
				Help: "Event handler errors and panics",
			},
			[]string{"event_type"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadpilot_workflow_run_duration_seconds",
				Help:    "Wall-clock duration of executed workflow runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity_type"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.runsTotal, m.actionsTotal, m.queueDropped, m.handlerErrors, m.runDuration)
	}
	return m
}

func (m *WorkflowMetrics) observeRun(entityType, triggerType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(entityType, triggerType, outcome).Inc()
	if outcome != constants.OutcomeSkipped {
		m.runDuration.WithLabelValues(entityType).Observe(d.Seconds())
	}
}

func (m *WorkflowMetrics) observeAction(action string, success bool) {
	if m == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	m.actionsTotal.WithLabelValues(action, label).Inc()
}

func (m *WorkflowMetrics) observeDrop() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}

func (m *WorkflowMetrics) observeHandlerError(eventType string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(eventType).Inc()
}
