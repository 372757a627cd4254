package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationBlocked is returned when Advance is attempted with required answers missing.
var ErrValidationBlocked = errors.New("validation blocked")

// ErrInvalidTransition is returned when an event arrives in a state that does not accept it.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrUnresolvedRecommendation marks a rule table that cannot always produce a result.
var ErrUnresolvedRecommendation = errors.New("unresolved recommendation")

// ErrSubmissionFailed is returned when packaging a result fails or times out.
var ErrSubmissionFailed = errors.New("submission failed")

// ErrFlowNotFound is returned when a flow ID is unknown to the loader.
var ErrFlowNotFound = errors.New("flow not found")

// ErrInvalidFlow is returned when a flow definition fails to compile.
var ErrInvalidFlow = errors.New("invalid flow")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrResultNotFound is returned when a stored result cannot be found.
var ErrResultNotFound = errors.New("result not found")

// ErrNotSkippable is returned when Skip is requested on a mandatory step.
var ErrNotSkippable = errors.New("step is not skippable")

// ErrUnknownField is returned when an answer targets a field no step declares.
var ErrUnknownField = errors.New("unknown field")

// ErrInvalidAnswer is returned when a value does not fit its field.
var ErrInvalidAnswer = errors.New("invalid answer")

// ValidationBlockedError lists the required fields still unanswered on a step.
type ValidationBlockedError struct {
	StepID  string
	Missing []string
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("step %q cannot advance: missing %s", e.StepID, strings.Join(e.Missing, ", "))
}

func (e *ValidationBlockedError) Is(target error) bool {
	return target == ErrValidationBlocked
}

// TransitionError reports an event rejected by the current wizard status.
type TransitionError struct {
	Event  Event
	Status Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q not allowed while %s", e.Event, e.Status)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// SubmissionError wraps the cause of a failed packaging attempt.
type SubmissionError struct {
	SessionID string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission of session %s failed: %v", e.SessionID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// AnswerError reports a value rejected for a field.
type AnswerError struct {
	Field  string
	Value  any
	Reason string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("invalid answer %q for field %q: %s", FormatValue(e.Value), e.Field, e.Reason)
}

func (e *AnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}
