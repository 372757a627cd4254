package observability

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(session string, at time.Time) domain.EventBase {
	return domain.EventBase{Timestamp: at, SessionID: session, FlowID: "mood"}
}

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics("test")
	hooks := m.Hooks()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base("s1", t0), StepID: "primary"})
	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base("s1", t0), StepID: "primary"})
	hooks.OnAnswer(ctx, &domain.AnswerEvent{EventBase: base("s1", t0), Field: "primary_mood", Value: "anxious"})
	hooks.OnRejected(ctx, &domain.RejectionEvent{EventBase: base("s1", t0), Event: domain.EventAdvance})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stepVisits.WithLabelValues("mood", "primary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("mood", "primary_mood")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("mood", "advance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions), "a session counts once")

	hooks.OnStatusChange(ctx, &domain.StatusEvent{EventBase: base("s1", t0), From: domain.StatusActive, To: domain.StatusSubmitting})
	hooks.OnStatusChange(ctx, &domain.StatusEvent{EventBase: base("s1", t0.Add(2*time.Second)), From: domain.StatusSubmitting, To: domain.StatusCompleted})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("mood", "completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.submitDuration))
}

func TestMetrics_FailedSubmissionKeepsSessionLive(t *testing.T) {
	m := NewMetrics("test")
	hooks := m.Hooks()
	ctx := context.Background()
	t0 := time.Now()

	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base("s2", t0), StepID: "last"})
	hooks.OnStatusChange(ctx, &domain.StatusEvent{EventBase: base("s2", t0), From: domain.StatusActive, To: domain.StatusSubmitting})
	hooks.OnStatusChange(ctx, &domain.StatusEvent{EventBase: base("s2", t0), From: domain.StatusSubmitting, To: domain.StatusActive})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.submitDuration, "test_submission_duration_seconds"))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("stepwise")
	m.Hooks().OnStepEnter(context.Background(), &domain.StepEvent{EventBase: base("s3", time.Now()), StepID: "primary"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stepwise_step_visits_total{flow_id="mood",step_id="primary"} 1`)
}

func TestMergeHooks(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnStepEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnStepEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "second") },
		OnAnswer:    func(context.Context, *domain.AnswerEvent) { calls = append(calls, "answer") },
	}

	merged := MergeHooks(first, domain.LifecycleHooks{}, second)
	merged.OnStepEnter(context.Background(), &domain.StepEvent{})
	merged.OnAnswer(context.Background(), &domain.AnswerEvent{})

	assert.Equal(t, []string{"first", "second", "answer"}, calls)
	assert.Nil(t, merged.OnRejected)
}

func TestLoggingHooks_OmitsValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LoggingHooks(logger).OnAnswer(context.Background(), &domain.AnswerEvent{
		EventBase: base("s4", time.Now()),
		Field:     "journal_entry",
		Value:     "private words",
	})

	assert.Contains(t, buf.String(), "field=journal_entry")
	assert.NotContains(t, buf.String(), "private words")
}
