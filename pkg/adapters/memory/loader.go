package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Loader implements ports.FlowLoader using an in-memory map.
// It is read-only after construction and safe for concurrent use.
type Loader struct {
	flows map[string]domain.Flow
}

// NewLoader creates a Loader holding the given flows.
func NewLoader(flows ...domain.Flow) (*Loader, error) {
	data := make(map[string]domain.Flow, len(flows))
	for _, f := range flows {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: flow missing ID", domain.ErrInvalidFlow)
		}
		if _, dup := data[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate flow %q", domain.ErrInvalidFlow, f.ID)
		}
		data[f.ID] = f
	}
	return &Loader{flows: data}, nil
}

// MustLoader is NewLoader for fixtures; it panics on invalid input.
func MustLoader(flows ...domain.Flow) *Loader {
	l, err := NewLoader(flows...)
	if err != nil {
		panic(err)
	}
	return l
}

// GetFlow returns a copy of the flow registered under id.
func (l *Loader) GetFlow(id string) (*domain.Flow, error) {
	f, ok := l.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
	}
	return &f, nil
}

// ListFlows returns all available flow IDs.
func (l *Loader) ListFlows() ([]string, error) {
	keys := make([]string, 0, len(l.flows))
	for k := range l.flows {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
