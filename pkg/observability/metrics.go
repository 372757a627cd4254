package observability

import (
	"context"
	"net/http"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the wizard collectors and the registry they are exposed on.
type Metrics struct {
	registry *prometheus.Registry

	stepVisits     *prometheus.CounterVec
	answers        *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	submitDuration *prometheus.HistogramVec

	mu         sync.Mutex
	live       map[string]struct{}
	submitting map[string]float64 // session id -> unix seconds when submission began
}

// NewMetrics creates the collectors under namespace on a private registry,
// together with the Go runtime and process collectors.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry:   prometheus.NewRegistry(),
		live:       make(map[string]struct{}),
		submitting: make(map[string]float64),
		stepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_visits_total",
			Help:      "Total number of step entries.",
		}, []string{"flow_id", "step_id"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Total number of answer changes, by field.",
		}, []string{"flow_id", "field"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_events_total",
			Help:      "Total number of events refused by a wizard.",
		}, []string{"flow_id", "event"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Total number of wizard status changes.",
		}, []string{"flow_id", "to"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Wizards that have started and not reached a terminal status.",
		}),
		submitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time spent in the submitting status, by how it ended.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow_id", "outcome"}),
	}

	m.registry.MustRegister(
		m.stepVisits,
		m.answers,
		m.rejections,
		m.statusChanges,
		m.activeSessions,
		m.submitDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, e.g. for tests or an existing exporter.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.stepVisits.WithLabelValues(e.FlowID, e.StepID).Inc()
			m.track(e.SessionID)
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			m.answers.WithLabelValues(e.FlowID, e.Field).Inc()
		},
		OnRejected: func(_ context.Context, e *domain.RejectionEvent) {
			m.rejections.WithLabelValues(e.FlowID, string(e.Event)).Inc()
		},
		OnStatusChange: m.observeStatus,
	}
}

// track counts a session as live the first time it enters a step.
func (m *Metrics) track(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[sessionID]; ok {
		return
	}
	m.live[sessionID] = struct{}{}
	m.activeSessions.Inc()
}

func (m *Metrics) observeStatus(_ context.Context, e *domain.StatusEvent) {
	m.statusChanges.WithLabelValues(e.FlowID, string(e.To)).Inc()
	now := float64(e.Timestamp.UnixNano()) / 1e9

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live[e.SessionID]; ok && e.To.IsTerminal() {
		delete(m.live, e.SessionID)
		m.activeSessions.Dec()
	}

	if e.To == domain.StatusSubmitting {
		m.submitting[e.SessionID] = now
		return
	}
	if e.From != domain.StatusSubmitting {
		return
	}
	started, ok := m.submitting[e.SessionID]
	if !ok {
		return
	}
	delete(m.submitting, e.SessionID)

	outcome := string(domain.OutcomeFailed)
	switch e.To {
	case domain.StatusCompleted:
		outcome = string(domain.OutcomeCompleted)
	case domain.StatusCancelled:
		outcome = string(domain.OutcomeCancelled)
	}
	m.submitDuration.WithLabelValues(e.FlowID, outcome).Observe(now - started)
}
