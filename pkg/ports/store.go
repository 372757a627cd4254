package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// ResultStore defines the interface for persisting packaged wizard results.
// The wizard core never calls it; hosts and submitters do.
type ResultStore interface {
	// Save persists a result under result.ID, replacing any previous value.
	Save(ctx context.Context, result *domain.WizardResult) error

	// Load retrieves a result by ID.
	// Returns domain.ErrResultNotFound if the result does not exist.
	Load(ctx context.Context, id string) (*domain.WizardResult, error)

	// Delete removes a result. Deleting a missing result is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every stored result.
	List(ctx context.Context) ([]string, error)
}
