package wizard

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/aretw0/stepwise/pkg/domain"
)

type packaged struct {
	result *domain.WizardResult
	err    error
}

// beginSubmit freezes input and starts packaging. Caller holds c.mu.
func (c *Controller) beginSubmit() {
	c.setStatus(domain.StatusSubmitting)
	c.generation++
	gen := c.generation

	sub := domain.Submission{
		SessionID:       c.sessionID,
		FlowID:          c.graph.ID(),
		Answers:         c.answers.Snapshot(),
		Recommendations: maps.Clone(c.recs),
		History:         slices.Clone(c.history),
		SubmittedAt:     c.now(),
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	c.cancelSubmit = cancel

	c.logger.Debug("submission started", "session_id", c.sessionID, "generation", gen, "timeout", c.timeout)
	go c.runSubmit(ctx, cancel, gen, sub)
}

// runSubmit waits for the submitter or the deadline, whichever comes first.
// A submitter that ignores ctx is abandoned, not waited on.
func (c *Controller) runSubmit(ctx context.Context, cancel context.CancelFunc, gen uint64, sub domain.Submission) {
	defer cancel()

	ch := make(chan packaged, 1)
	go func() {
		res, err := c.submitter.Package(ctx, sub)
		ch <- packaged{result: res, err: err}
	}()

	var out packaged
	select {
	case out = <-ch:
	case <-ctx.Done():
		out = packaged{err: ctx.Err()}
	}
	if out.err == nil && out.result == nil {
		out.err = errors.New("submitter returned no result")
	}

	c.finishSubmit(gen, out)
}

// finishSubmit applies a packaging outcome if the attempt is still the live one.
func (c *Controller) finishSubmit(gen uint64, out packaged) {
	c.mu.Lock()

	if gen != c.generation || c.status != domain.StatusSubmitting {
		c.logger.Debug("discarding stale submission",
			"session_id", c.sessionID,
			"generation", gen,
			"status", c.status,
		)
		c.mu.Unlock()
		return
	}
	c.cancelSubmit = nil

	if out.err != nil {
		err := &domain.SubmissionError{SessionID: c.sessionID, Err: out.err}
		c.lastErr = err
		c.setStatus(domain.StatusActive)
		c.logger.Warn("submission failed", "session_id", c.sessionID, "flow_id", c.graph.ID(), "err", out.err)

		outcome := domain.Outcome{Kind: domain.OutcomeFailed, SessionID: c.sessionID, FlowID: c.graph.ID(), Err: err}
		c.mu.Unlock()
		c.deliver(outcome)
		return
	}

	c.lastErr = nil
	c.result = out.result
	c.setStatus(domain.StatusCompleted)
	close(c.done)
	c.logger.Info("wizard completed", "session_id", c.sessionID, "flow_id", c.graph.ID(), "result_id", out.result.ID)

	outcome := domain.Outcome{Kind: domain.OutcomeCompleted, SessionID: c.sessionID, FlowID: c.graph.ID(), Result: out.result}
	c.mu.Unlock()
	c.deliver(outcome)
}
