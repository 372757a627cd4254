// Package graph compiles a flow definition into an immutable step graph.
//
// A compiled Graph answers two questions for the wizard controller: where
// does Advance lead from a step given the current answers, and where does
// Skip lead. Graphs hold no session state and are safe for concurrent use.
package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/stepwise/pkg/domain"
)

// ErrUnknownStep is returned when a step ID is not part of the graph.
var ErrUnknownStep = errors.New("unknown step")

// Option configures a Graph at compile time.
type Option func(*Graph)

// WithConditionEvaluator replaces the built-in condition language.
// Conditions are then not parsed at compile time.
func WithConditionEvaluator(eval ConditionEvaluator) Option {
	return func(g *Graph) {
		g.evaluator = eval
	}
}

type fieldRef struct {
	field  domain.Field
	stepID string
}

// Graph is a validated, immutable view over a flow.
type Graph struct {
	flow      domain.Flow
	steps     map[string]domain.Step
	fields    map[string]fieldRef
	fieldList []domain.Field
	evaluator ConditionEvaluator
	compiled  map[string]*Condition
}

// New validates flow and returns its compiled graph. All problems found are
// reported together, wrapped in domain.ErrInvalidFlow.
func New(flow domain.Flow, opts ...Option) (*Graph, error) {
	g := &Graph{
		flow:     flow,
		steps:    make(map[string]domain.Step, len(flow.Steps)),
		fields:   make(map[string]fieldRef),
		compiled: make(map[string]*Condition),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.flow.Entry == "" && len(g.flow.Steps) > 0 {
		g.flow.Entry = g.flow.Steps[0].ID
	}

	if problems := g.compile(); len(problems) > 0 {
		return nil, fmt.Errorf("%w %q: %w", domain.ErrInvalidFlow, flow.ID, errors.Join(problems...))
	}

	if g.evaluator == nil {
		g.evaluator = g.evalCompiled
	}
	return g, nil
}

func (g *Graph) compile() []error {
	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if g.flow.ID == "" {
		report("flow id is empty")
	}
	if len(g.flow.Steps) == 0 {
		report("flow has no steps")
		return problems
	}

	for _, s := range g.flow.Steps {
		if s.ID == "" {
			report("step with empty id")
			continue
		}
		if s.ID == domain.Terminal {
			report("step id %q is reserved", s.ID)
		}
		if _, dup := g.steps[s.ID]; dup {
			report("duplicate step %q", s.ID)
			continue
		}
		g.steps[s.ID] = s
	}

	if _, ok := g.steps[g.flow.Entry]; !ok {
		report("entry step %q does not exist", g.flow.Entry)
	}

	for _, s := range g.flow.Steps {
		for _, f := range s.Inputs {
			if err := validateField(f); err != nil {
				report("step %q: %v", s.ID, err)
				continue
			}
			if prev, dup := g.fields[f.Name]; dup {
				report("field %q declared by both %q and %q", f.Name, prev.stepID, s.ID)
				continue
			}
			g.fields[f.Name] = fieldRef{field: f, stepID: s.ID}
			g.fieldList = append(g.fieldList, f)
		}
	}

	for _, s := range g.flow.Steps {
		for _, req := range s.Required {
			if _, ok := s.Input(req); !ok {
				report("step %q requires %q which it does not declare", s.ID, req)
			}
		}

		g.checkTarget(s.ID, "next", s.Next, report)
		if s.SkipTo != "" {
			if !s.Skippable {
				report("step %q has skip_to but is not skippable", s.ID)
			}
			g.checkTarget(s.ID, "skip_to", s.SkipTo, report)
		}
		for i, t := range s.Transitions {
			g.checkTarget(s.ID, fmt.Sprintf("transition %d", i), t.To, report)
			if t.Condition == "" || g.evaluator != nil {
				continue
			}
			c, err := ParseCondition(t.Condition)
			if err != nil {
				report("step %q: %v", s.ID, err)
				continue
			}
			for _, field := range c.Fields() {
				if _, ok := g.fields[field]; !ok {
					report("step %q: condition %q reads undeclared field %q", s.ID, t.Condition, field)
				}
			}
			g.compiled[t.Condition] = c
		}
	}

	for _, table := range g.flow.Recommendations {
		for _, tier := range table.Tiers {
			for _, field := range tier.Fields {
				if _, ok := g.fields[field]; !ok {
					report("recommendation %q reads undeclared field %q", table.Name, field)
				}
			}
		}
	}

	return problems
}

func (g *Graph) checkTarget(stepID, label, target string, report func(string, ...any)) {
	switch target {
	case "", domain.Terminal:
		return
	case stepID:
		report("step %q: %s points to itself", stepID, label)
	default:
		if _, ok := g.steps[target]; !ok {
			report("step %q: %s points to unknown step %q", stepID, label, target)
		}
	}
}

func validateField(f domain.Field) error {
	if f.Name == "" {
		return fmt.Errorf("field with empty name")
	}
	switch f.Kind {
	case domain.FieldSingle, domain.FieldMulti:
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: %s field needs options", f.Name, f.Kind)
		}
	case domain.FieldScale:
		if f.Max <= f.Min {
			return fmt.Errorf("field %q: scale max %v must exceed min %v", f.Name, f.Max, f.Min)
		}
	case domain.FieldText, domain.FieldToggle:
	default:
		return fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind)
	}
	return nil
}

func (g *Graph) evalCompiled(ctx context.Context, condition string, answers domain.Answers) (bool, error) {
	if c, ok := g.compiled[condition]; ok {
		return c.Eval(answers), nil
	}
	return DefaultEvaluator(ctx, condition, answers)
}

// ID returns the flow identifier.
func (g *Graph) ID() string {
	return g.flow.ID
}

// Flow returns the flow the graph was compiled from.
func (g *Graph) Flow() domain.Flow {
	return g.flow
}

// Entry returns the first step of every session.
func (g *Graph) Entry() string {
	return g.flow.Entry
}

// Step looks up a step by ID.
func (g *Graph) Step(id string) (domain.Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// Steps returns the steps in declaration order.
func (g *Graph) Steps() []domain.Step {
	return slices.Clone(g.flow.Steps)
}

// Field looks up a declared field anywhere in the flow.
func (g *Graph) Field(name string) (domain.Field, bool) {
	ref, ok := g.fields[name]
	return ref.field, ok
}

// FieldOwner returns the ID of the step that declares the field.
func (g *Graph) FieldOwner(name string) (string, bool) {
	ref, ok := g.fields[name]
	return ref.stepID, ok
}

// Fields returns every declared field in declaration order.
func (g *Graph) Fields() []domain.Field {
	return slices.Clone(g.fieldList)
}

// Next resolves where Advance leads from stepID. Resolution order: the step's
// NextFunc, conditional transitions in order, the first unconditional
// transition, the static Next. With no target the result is domain.Terminal.
func (g *Graph) Next(ctx context.Context, stepID string, answers domain.Answers) (string, error) {
	step, ok := g.steps[stepID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, stepID)
	}

	if step.Resolve != nil {
		if target := step.Resolve(answers); target != "" {
			if err := g.validRuntimeTarget(stepID, target); err != nil {
				return "", err
			}
			return target, nil
		}
	}

	for _, t := range step.Transitions {
		if t.Condition == "" {
			continue
		}
		matched, err := g.evaluator(ctx, t.Condition, answers)
		if err != nil {
			return "", fmt.Errorf("step %q: evaluate %q: %w", stepID, t.Condition, err)
		}
		if matched {
			return orTerminal(t.To), nil
		}
	}

	for _, t := range step.Transitions {
		if t.Condition == "" {
			return orTerminal(t.To), nil
		}
	}

	return orTerminal(step.Next), nil
}

// SkipTarget resolves where Skip leads from stepID: SkipTo when declared,
// otherwise Next evaluated as if the step's fields had never been answered.
func (g *Graph) SkipTarget(ctx context.Context, stepID string, answers domain.Answers) (string, error) {
	step, ok := g.steps[stepID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, stepID)
	}
	if step.SkipTo != "" {
		return step.SkipTo, nil
	}
	return g.Next(ctx, stepID, answers.Without(step.InputNames()...))
}

// Edges lists every statically declared target of a step, without duplicates.
// Targets chosen by a NextFunc are not included.
func (g *Graph) Edges(stepID string) []string {
	step, ok := g.steps[stepID]
	if !ok {
		return nil
	}
	var out []string
	add := func(target string) {
		target = orTerminal(target)
		if !slices.Contains(out, target) {
			out = append(out, target)
		}
	}
	for _, t := range step.Transitions {
		add(t.To)
	}
	hasDefault := slices.ContainsFunc(step.Transitions, func(t domain.Transition) bool { return t.Condition == "" })
	if !hasDefault {
		add(step.Next)
	}
	if step.SkipTo != "" {
		add(step.SkipTo)
	}
	return out
}

func (g *Graph) validRuntimeTarget(stepID, target string) error {
	if target == domain.Terminal {
		return nil
	}
	if target == stepID {
		return fmt.Errorf("%w: step %q resolved to itself", domain.ErrInvalidFlow, stepID)
	}
	if _, ok := g.steps[target]; !ok {
		return fmt.Errorf("%w: step %q resolved to unknown step %q", domain.ErrInvalidFlow, stepID, target)
	}
	return nil
}

func orTerminal(target string) string {
	if target == "" {
		return domain.Terminal
	}
	return target
}

// Previous returns the step Back leads to: the penultimate history entry.
// A history of one entry has no previous step.
func Previous(history []string) (string, bool) {
	if len(history) < 2 {
		return "", false
	}
	return history[len(history)-2], true
}
