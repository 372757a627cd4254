// Package wizard drives one guided-wizard session.
//
// A Controller owns the session state (answers, history, status) of a single
// open wizard and turns user events into state changes:
//
//	active --advance on final step--> submitting --packaged--> completed
//	   ^                                   |
//	   +--------- submission failed -------+
//	active | submitting --cancel--> cancelled
//
// All methods are safe for concurrent use; events are serialized. The only
// asynchronous work is packaging the result, which runs on its own goroutine
// under a timeout and is discarded if the session is cancelled first.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/gate"
	"github.com/aretw0/stepwise/pkg/graph"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/recommend"
	"github.com/aretw0/stepwise/pkg/schema"
	"github.com/aretw0/stepwise/pkg/selection"
	"github.com/aretw0/stepwise/pkg/submit"
	"github.com/google/uuid"
)

// Controller is the state machine of one wizard session.
type Controller struct {
	graph        *graph.Graph
	resolvers    []*recommend.Resolver
	resolversSet bool
	schema       schema.Schema
	submitter    ports.Submitter
	handler      domain.CompletionHandler
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	timeout      time.Duration
	now          func() time.Time

	ctx       context.Context
	sessionID string

	mu           sync.Mutex
	status       domain.Status
	answers      *selection.Store
	history      []string
	recs         map[string]string
	generation   uint64
	cancelSubmit context.CancelFunc
	lastErr      error
	result       *domain.WizardResult
	done         chan struct{}
}

// Start opens a session on g's entry step.
// ctx is the parent of every submission: cancelling it fails in-flight
// packaging. Hosts serving short-lived requests should pass a detached context.
func Start(ctx context.Context, g *graph.Graph, opts ...Option) (*Controller, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", domain.ErrInvalidFlow)
	}

	c := &Controller{
		graph:   g,
		logger:  logging.NewNop(),
		timeout: DefaultSubmitTimeout,
		now:     time.Now,
		ctx:     ctx,
		status:  domain.StatusActive,
		answers: selection.New(),
		history: []string{g.Entry()},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if !c.resolversSet {
		rs, err := recommend.Compile(g.Flow().Recommendations)
		if err != nil {
			return nil, err
		}
		c.resolvers = rs
	}
	if c.schema == nil {
		s, err := schema.FromFields(g.Fields())
		if err != nil {
			return nil, err
		}
		c.schema = s
	}
	if c.submitter == nil {
		c.submitter = submit.New(
			submit.WithSchema(c.schema),
			submit.WithClock(c.now),
			submit.WithLogger(c.logger),
		)
	}

	c.recs = recommend.ResolveAll(c.resolvers, c.answers.Snapshot())

	c.logger.Debug("wizard started", "session_id", c.sessionID, "flow_id", g.ID(), "step_id", g.Entry())
	c.mu.Lock()
	c.emitStepEnter(g.Entry())
	c.mu.Unlock()
	return c, nil
}

// SessionID returns the session identifier.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// FlowID returns the identifier of the flow being walked.
func (c *Controller) FlowID() string {
	return c.graph.ID()
}

// Done is closed once the session reaches a terminal status.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// --- Answer events ---

// SelectScalar stores value as the answer for field.
func (c *Controller) SelectScalar(field string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventSelect); err != nil {
		return err
	}
	if _, err := c.lookupField(domain.EventSelect, field); err != nil {
		return err
	}
	if err := c.schema.ValidateValue(field, value); err != nil {
		return c.reject(domain.EventSelect, err)
	}

	c.answers.SetScalar(field, value)
	c.emitAnswer(field, domain.Normalize(value), false)
	c.refreshRecommendations(field)
	return nil
}

// ToggleSetMember adds member to a multi-choice field, or removes it if present.
func (c *Controller) ToggleSetMember(field, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventToggle); err != nil {
		return err
	}
	f, err := c.lookupField(domain.EventToggle, field)
	if err != nil {
		return err
	}
	if f.Kind != domain.FieldMulti {
		return c.reject(domain.EventToggle, &domain.AnswerError{Field: field, Value: member, Reason: "not a multi-choice field"})
	}
	if !slices.Contains(f.Options, member) {
		return c.reject(domain.EventToggle, &domain.AnswerError{Field: field, Value: member, Reason: "not an option"})
	}

	c.answers.ToggleInSet(field, member)
	current, _ := c.answers.Snapshot().Get(field)
	c.emitAnswer(field, current, false)
	c.refreshRecommendations(field)
	return nil
}

// ClearField removes the answer for field. Editing a field owned by an
// earlier step never blocks the current step.
func (c *Controller) ClearField(field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventClear); err != nil {
		return err
	}
	if _, err := c.lookupField(domain.EventClear, field); err != nil {
		return err
	}

	c.answers.ClearField(field)
	c.emitAnswer(field, nil, true)
	c.refreshRecommendations(field)
	return nil
}

// --- Navigation events ---

// Advance moves to the next step, or starts submission from the final step.
// A blocked gate returns *domain.ValidationBlockedError and changes nothing.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventAdvance); err != nil {
		return err
	}

	step := c.currentStep()
	answers := c.answers.Snapshot()
	if err := gate.Check(step, answers); err != nil {
		return c.reject(domain.EventAdvance, err)
	}

	next, err := c.graph.Next(c.ctx, step.ID, answers)
	if err != nil {
		c.logger.Error("cannot resolve next step", "session_id", c.sessionID, "step_id", step.ID, "err", err)
		return err
	}

	if next == domain.Terminal {
		c.beginSubmit()
		return nil
	}
	c.moveTo(next)
	return nil
}

// Back returns to the previous step in history. Answers are kept.
// On the first step it is a no-op.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventBack); err != nil {
		return err
	}
	prev, ok := graph.Previous(c.history)
	if !ok {
		return nil
	}

	c.emitStepLeave(c.currentID())
	c.history = c.history[:len(c.history)-1]
	c.emitStepEnter(prev)
	return nil
}

// Skip leaves a skippable step without answering it. The step's fields are
// cleared so recommendation tiers reading them no longer apply. Skipping the
// final step submits.
func (c *Controller) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventSkip); err != nil {
		return err
	}

	step := c.currentStep()
	if !step.Skippable {
		return c.reject(domain.EventSkip, fmt.Errorf("%w: %q", domain.ErrNotSkippable, step.ID))
	}

	target, err := c.graph.SkipTarget(c.ctx, step.ID, c.answers.Snapshot())
	if err != nil {
		c.logger.Error("cannot resolve skip target", "session_id", c.sessionID, "step_id", step.ID, "err", err)
		return err
	}

	answers := c.answers.Snapshot()
	for _, name := range step.InputNames() {
		if answers.Has(name) {
			c.answers.ClearField(name)
			c.emitAnswer(name, nil, true)
		}
	}
	c.recomputeRecommendations()

	if target == domain.Terminal {
		c.beginSubmit()
		return nil
	}
	c.moveTo(target)
	return nil
}

// Reset discards every answer and returns to the entry step. The result is
// indistinguishable from a freshly started session.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireActive(domain.EventReset); err != nil {
		return err
	}

	c.emitStepLeave(c.currentID())
	c.answers.Clear()
	c.history = []string{c.graph.Entry()}
	c.lastErr = nil
	c.recomputeRecommendations()
	c.emitStepEnter(c.graph.Entry())
	return nil
}

// Cancel dismisses the session. An in-flight submission is abandoned and its
// result discarded. The handler receives a cancelled outcome.
func (c *Controller) Cancel() error {
	c.mu.Lock()

	if c.status.IsTerminal() {
		err := c.reject(domain.EventCancel, &domain.TransitionError{Event: domain.EventCancel, Status: c.status})
		c.mu.Unlock()
		return err
	}

	from := c.status
	c.generation++
	if c.cancelSubmit != nil {
		c.cancelSubmit()
		c.cancelSubmit = nil
	}
	c.setStatus(domain.StatusCancelled)
	close(c.done)
	c.logger.Info("wizard cancelled", "session_id", c.sessionID, "flow_id", c.graph.ID(), "from", from)

	outcome := domain.Outcome{Kind: domain.OutcomeCancelled, SessionID: c.sessionID, FlowID: c.graph.ID()}
	c.mu.Unlock()

	c.deliver(outcome)
	return nil
}

// Close tears the wizard down. It cancels a live session and is a no-op on a
// finished one.
func (c *Controller) Close() error {
	err := c.Cancel()
	if errors.Is(err, domain.ErrInvalidTransition) {
		return nil
	}
	return err
}

// Dispatch applies a transport-neutral command.
func (c *Controller) Dispatch(cmd domain.Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAnswer, err)
	}
	switch cmd.Event {
	case domain.EventSelect:
		return c.SelectScalar(cmd.Field, cmd.Value)
	case domain.EventToggle:
		return c.ToggleSetMember(cmd.Field, domain.FormatValue(cmd.Value))
	case domain.EventClear:
		return c.ClearField(cmd.Field)
	case domain.EventAdvance:
		return c.Advance()
	case domain.EventBack:
		return c.Back()
	case domain.EventSkip:
		return c.Skip()
	case domain.EventReset:
		return c.Reset()
	default:
		return c.Cancel()
	}
}

// --- Read-only display ---

// Status returns the lifecycle status.
func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CurrentStep returns the step the user is on.
func (c *Controller) CurrentStep() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentStep()
}

// CanAdvance reports whether the current step's gate is open.
func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == domain.StatusActive && gate.CanAdvance(c.currentStep(), c.answers.Snapshot())
}

// Answers returns a snapshot of the collected answers.
func (c *Controller) Answers() domain.Answers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Snapshot()
}

// History returns the visited steps, current step last.
func (c *Controller) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Recommendation returns the primary table's text, or "" when the flow has none.
func (c *Controller) Recommendation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primaryRecommendation()
}

// Recommendations returns every table's text keyed by table name.
func (c *Controller) Recommendations() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.recs)
}

// Result returns the packaged result once the session is completed.
func (c *Controller) Result() (*domain.WizardResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.result != nil
}

// View returns the full read-only projection for rendering.
func (c *Controller) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.currentStep()
	answers := c.answers.Snapshot()
	active := c.status == domain.StatusActive

	v := domain.View{
		SessionID:       c.sessionID,
		FlowID:          c.graph.ID(),
		Status:          c.status,
		CurrentStepID:   step.ID,
		Step:            &step,
		CanAdvance:      active && gate.CanAdvance(step, answers),
		Missing:         gate.Missing(step, answers),
		CanSkip:         active && step.Skippable,
		CanGoBack:       active && len(c.history) > 1,
		Answers:         answers,
		History:         slices.Clone(c.history),
		Recommendation:  c.primaryRecommendation(),
		Recommendations: maps.Clone(c.recs),
	}
	if c.lastErr != nil {
		v.LastError = c.lastErr.Error()
	}
	return v
}

// --- internals (callers hold c.mu) ---

func (c *Controller) currentID() string {
	return c.history[len(c.history)-1]
}

func (c *Controller) currentStep() domain.Step {
	step, _ := c.graph.Step(c.currentID())
	return step
}

func (c *Controller) primaryRecommendation() string {
	if len(c.resolvers) == 0 {
		return ""
	}
	return c.recs[c.resolvers[0].Name()]
}

func (c *Controller) requireActive(event domain.Event) error {
	if c.status == domain.StatusActive {
		return nil
	}
	return c.reject(event, &domain.TransitionError{Event: event, Status: c.status})
}

func (c *Controller) lookupField(event domain.Event, name string) (domain.Field, error) {
	f, ok := c.graph.Field(name)
	if !ok {
		return f, c.reject(event, fmt.Errorf("%w: %q", domain.ErrUnknownField, name))
	}
	return f, nil
}

func (c *Controller) reject(event domain.Event, err error) error {
	c.logger.Debug("event rejected",
		"session_id", c.sessionID,
		"event", event,
		"status", c.status,
		"err", err,
	)
	if c.hooks.OnRejected != nil {
		c.hooks.OnRejected(c.ctx, &domain.RejectionEvent{
			EventBase: c.eventBase(),
			StepID:    c.currentID(),
			Event:     event,
			Err:       err,
		})
	}
	return err
}

func (c *Controller) moveTo(next string) {
	c.emitStepLeave(c.currentID())
	c.history = append(c.history, next)
	c.emitStepEnter(next)
}

func (c *Controller) refreshRecommendations(field string) {
	for _, r := range c.resolvers {
		if r.Reads(field) {
			c.recomputeRecommendations()
			return
		}
	}
}

func (c *Controller) recomputeRecommendations() {
	c.recs = recommend.ResolveAll(c.resolvers, c.answers.Snapshot())
}

func (c *Controller) setStatus(to domain.Status) {
	from := c.status
	c.status = to
	if c.hooks.OnStatusChange != nil && from != to {
		c.hooks.OnStatusChange(c.ctx, &domain.StatusEvent{EventBase: c.eventBase(), From: from, To: to})
	}
}

func (c *Controller) eventBase() domain.EventBase {
	return domain.EventBase{Timestamp: c.now(), SessionID: c.sessionID, FlowID: c.graph.ID()}
}

func (c *Controller) emitStepEnter(stepID string) {
	if c.hooks.OnStepEnter != nil {
		c.hooks.OnStepEnter(c.ctx, &domain.StepEvent{EventBase: c.eventBase(), StepID: stepID})
	}
}

func (c *Controller) emitStepLeave(stepID string) {
	if c.hooks.OnStepLeave != nil {
		c.hooks.OnStepLeave(c.ctx, &domain.StepEvent{EventBase: c.eventBase(), StepID: stepID})
	}
}

func (c *Controller) emitAnswer(field string, value any, cleared bool) {
	if c.hooks.OnAnswer != nil {
		c.hooks.OnAnswer(c.ctx, &domain.AnswerEvent{
			EventBase: c.eventBase(),
			StepID:    c.currentID(),
			Field:     field,
			Value:     value,
			Cleared:   cleared,
		})
	}
}

func (c *Controller) deliver(outcome domain.Outcome) {
	if c.handler != nil {
		c.handler(outcome)
	}
}
