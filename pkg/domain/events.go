package domain

import (
	"context"
	"time"
)

// Event names a user intent sent to a wizard.
type Event string

const (
	EventSelect  Event = "select"
	EventToggle  Event = "toggle"
	EventClear   Event = "clear"
	EventAdvance Event = "advance"
	EventBack    Event = "back"
	EventSkip    Event = "skip"
	EventReset   Event = "reset"
	EventCancel  Event = "cancel"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	FlowID    string    `json:"flow_id"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	StepID string `json:"step_id"`
}

// AnswerEvent represents a change to one field.
type AnswerEvent struct {
	EventBase
	StepID  string `json:"step_id"`
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Cleared bool   `json:"cleared,omitempty"`
}

// RejectionEvent represents an event refused by the wizard.
type RejectionEvent struct {
	EventBase
	StepID string `json:"step_id"`
	Event  Event  `json:"event"`
	Err    error  `json:"-"`
}

// StatusEvent represents a lifecycle status change.
type StatusEvent struct {
	EventBase
	From Status `json:"from"`
	To   Status `json:"to"`
}

// LifecycleHooks defines callbacks for wizard observability.
type LifecycleHooks struct {
	OnStepEnter    func(context.Context, *StepEvent)
	OnStepLeave    func(context.Context, *StepEvent)
	OnAnswer       func(context.Context, *AnswerEvent)
	OnRejected     func(context.Context, *RejectionEvent)
	OnStatusChange func(context.Context, *StatusEvent)
}
