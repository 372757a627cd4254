package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepwise/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, rejections at info.
// Answer values are not logged; they may be sensitive.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "session_id", e.SessionID, "flow_id", e.FlowID, "step_id", e.StepID)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "flow_id", e.FlowID, "step_id", e.StepID)
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer", "session_id", e.SessionID, "step_id", e.StepID, "field", e.Field, "cleared", e.Cleared)
		},
		OnRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			logger.InfoContext(ctx, "event_rejected", "session_id", e.SessionID, "step_id", e.StepID, "event", e.Event, "err", e.Err)
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) {
			logger.DebugContext(ctx, "status_change", "session_id", e.SessionID, "flow_id", e.FlowID, "from", e.From, "to", e.To)
		},
	}
}

// MergeHooks fans each lifecycle event out to every non-nil callback, in order.
func MergeHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var merged domain.LifecycleHooks
	for _, h := range all {
		merged.OnStepEnter = chain(merged.OnStepEnter, h.OnStepEnter)
		merged.OnStepLeave = chain(merged.OnStepLeave, h.OnStepLeave)
		merged.OnAnswer = chain(merged.OnAnswer, h.OnAnswer)
		merged.OnRejected = chain(merged.OnRejected, h.OnRejected)
		merged.OnStatusChange = chain(merged.OnStatusChange, h.OnStatusChange)
	}
	return merged
}

func chain[E any](first, second func(context.Context, E)) func(context.Context, E) {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		second(ctx, e)
	}
}
