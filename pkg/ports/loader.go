package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// FlowLoader defines how the engine retrieves flow definitions.
// This allows the storage layer (embedded files, Loam, Memory) to be decoupled.
type FlowLoader interface {
	// GetFlow returns the flow with the given ID.
	// It returns an error wrapping domain.ErrFlowNotFound for unknown IDs.
	GetFlow(id string) (*domain.Flow, error)

	// ListFlows returns the IDs of every available flow in lexical order.
	ListFlows() ([]string, error)
}

// Watchable is implemented by loaders whose flows can change at runtime.
// The channel carries the ID of each changed flow and closes when ctx is done.
type Watchable interface {
	Watch(ctx context.Context) (<-chan string, error)
}
