// Package submit turns a finished wizard session into a WizardResult.
//
// Packager is the default ports.Submitter. It validates the final answers
// against the flow's field schema, stamps the result with the submission
// time, and optionally saves it to a ResultStore before handing it back.
package submit

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/schema"
	"github.com/google/uuid"
)

// Packager is a ports.Submitter producing WizardResults.
type Packager struct {
	schema schema.Schema
	store  ports.ResultStore
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Packager.
type Option func(*Packager)

// WithSchema validates answers before packaging.
func WithSchema(s schema.Schema) Option {
	return func(p *Packager) {
		p.schema = s
	}
}

// WithStore saves each result before it is returned. A failed save fails the submission.
func WithStore(store ports.ResultStore) Option {
	return func(p *Packager) {
		p.store = store
	}
}

// WithIDGenerator overrides the default UUID result IDs.
func WithIDGenerator(fn func() string) Option {
	return func(p *Packager) {
		p.newID = fn
	}
}

// WithClock sets the time source used when a submission carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(p *Packager) {
		p.now = now
	}
}

// WithLogger configures a logger for the Packager.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Packager) {
		p.logger = logger
	}
}

// New creates a Packager.
func New(opts ...Option) *Packager {
	p := &Packager{
		newID:  uuid.NewString,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Package implements ports.Submitter.
func (p *Packager) Package(ctx context.Context, sub domain.Submission) (*domain.WizardResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.schema != nil {
		if err := schema.Validate(p.schema, sub.Answers); err != nil {
			return nil, fmt.Errorf("validate answers: %w", err)
		}
	}

	captured := sub.SubmittedAt
	if captured.IsZero() {
		captured = p.now()
	}

	result := &domain.WizardResult{
		ID:              p.newID(),
		SessionID:       sub.SessionID,
		FlowID:          sub.FlowID,
		Answers:         sub.Answers,
		Recommendations: maps.Clone(sub.Recommendations),
		CapturedAt:      captured.UTC(),
	}

	if p.store != nil {
		if err := p.store.Save(ctx, result); err != nil {
			return nil, fmt.Errorf("store result %s: %w", result.ID, err)
		}
	}

	p.logger.Debug("result packaged",
		"result_id", result.ID,
		"session_id", result.SessionID,
		"flow_id", result.FlowID,
	)
	return result, nil
}
