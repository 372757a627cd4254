package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/graph"
	"github.com/aretw0/stepwise/pkg/recommend"
)

// Builder manages the flow construction.
type Builder struct {
	flow   domain.Flow
	steps  []*StepBuilder
	index  map[string]*StepBuilder
	tables []*TableBuilder
}

// New creates a new flow builder.
func New(id string) *Builder {
	return &Builder{
		flow:  domain.Flow{ID: id},
		index: make(map[string]*StepBuilder),
	}
}

// Title sets the display title of the flow.
func (b *Builder) Title(title string) *Builder {
	b.flow.Title = title
	return b
}

// Describe sets the flow description.
func (b *Builder) Describe(description string) *Builder {
	b.flow.Description = description
	return b
}

// Entry overrides the entry step. It defaults to the first step added.
func (b *Builder) Entry(stepID string) *Builder {
	b.flow.Entry = stepID
	return b
}

// Step creates a new step in the flow.
// If the step already exists, it returns the existing builder.
func (b *Builder) Step(id string) *StepBuilder {
	if sb, ok := b.index[id]; ok {
		return sb
	}
	sb := &StepBuilder{step: domain.Step{ID: id}}
	b.index[id] = sb
	b.steps = append(b.steps, sb)
	return sb
}

// Recommend adds a rule table. Tables are consulted in the order they are
// added, so the first one is the primary recommendation.
func (b *Builder) Recommend(name string) *TableBuilder {
	for _, tb := range b.tables {
		if tb.table.Name == name {
			return tb
		}
	}
	tb := &TableBuilder{table: domain.RuleTable{Name: name}}
	b.tables = append(b.tables, tb)
	return tb
}

// Flow assembles and checks the flow: steps and transitions must form a
// valid graph and every rule table must compile.
func (b *Builder) Flow() (domain.Flow, error) {
	flow := b.flow
	flow.Steps = make([]domain.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		flow.Steps = append(flow.Steps, sb.Build())
	}
	if flow.Entry == "" && len(flow.Steps) > 0 {
		flow.Entry = flow.Steps[0].ID
	}
	for _, tb := range b.tables {
		flow.Recommendations = append(flow.Recommendations, tb.table)
	}

	var errs []error
	if _, err := graph.New(flow); err != nil {
		errs = append(errs, err)
	}
	if _, err := recommend.Compile(flow.Recommendations); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return domain.Flow{}, fmt.Errorf("flow %s: %w", flow.ID, errors.Join(errs...))
	}
	return flow, nil
}

// Build compiles the flow into a MemoryLoader.
func (b *Builder) Build() (*memory.Loader, error) {
	flow, err := b.Flow()
	if err != nil {
		return nil, err
	}

	loader, err := memory.NewLoader(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
