package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Submitter packages a finished session into a result.
// Implementations must honor ctx: the wizard abandons the call when ctx is
// done and discards anything returned afterwards.
type Submitter interface {
	Package(ctx context.Context, sub domain.Submission) (*domain.WizardResult, error)
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, sub domain.Submission) (*domain.WizardResult, error)

func (f SubmitterFunc) Package(ctx context.Context, sub domain.Submission) (*domain.WizardResult, error) {
	return f(ctx, sub)
}
