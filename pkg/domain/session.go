package domain

import "time"

// Status is the lifecycle state of a wizard session.
type Status string

const (
	StatusActive     Status = "active"     // accepting answers and navigation
	StatusSubmitting Status = "submitting" // packaging in flight, input frozen
	StatusCompleted  Status = "completed"  // result delivered
	StatusCancelled  Status = "cancelled"  // dismissed, nothing delivered
)

// IsTerminal reports whether no further event can change the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// View is the read-only projection of a session handed to presentation layers.
type View struct {
	SessionID     string   `json:"session_id"`
	FlowID        string   `json:"flow_id"`
	Status        Status   `json:"status"`
	CurrentStepID string   `json:"current_step_id"`
	Step          *Step    `json:"step,omitempty"`
	CanAdvance    bool     `json:"can_advance"`
	Missing       []string `json:"missing,omitempty"`
	CanSkip       bool     `json:"can_skip"`
	CanGoBack     bool     `json:"can_go_back"`
	Answers       Answers  `json:"answers"`
	History       []string `json:"history"`

	// Recommendation is the text of the primary rule table.
	Recommendation  string            `json:"recommendation,omitempty"`
	Recommendations map[string]string `json:"recommendations,omitempty"`

	// LastError describes the most recent failed submission, if any.
	LastError string `json:"last_error,omitempty"`
}

// Submission is what a wizard hands to its Submitter when the final step completes.
type Submission struct {
	SessionID       string            `json:"session_id"`
	FlowID          string            `json:"flow_id"`
	Answers         Answers           `json:"answers"`
	Recommendations map[string]string `json:"recommendations,omitempty"`
	History         []string          `json:"history"`
	SubmittedAt     time.Time         `json:"submitted_at"`
}

// WizardResult is the packaged output of a completed wizard.
type WizardResult struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"session_id"`
	FlowID          string            `json:"flow_id"`
	Answers         Answers           `json:"answers"`
	Recommendations map[string]string `json:"recommendations,omitempty"`
	CapturedAt      time.Time         `json:"captured_at"`
}

// OutcomeKind tells how a session ended, or that a submission attempt failed.
type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is delivered to the CompletionHandler. Result is set for completed
// outcomes, Err for failed ones.
type Outcome struct {
	Kind      OutcomeKind
	SessionID string
	FlowID    string
	Result    *WizardResult
	Err       error
}

// CompletionHandler receives outcomes. Completed and cancelled are delivered at
// most once per session; failed may repeat across retries.
type CompletionHandler func(Outcome)
