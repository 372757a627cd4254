package dsl

import "github.com/aretw0/stepwise/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step domain.Step
}

// Title sets the heading shown above the step.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.step.Title = title
	return s
}

// Prompt sets the question the step asks.
func (s *StepBuilder) Prompt(prompt string) *StepBuilder {
	s.step.Prompt = prompt
	return s
}

// Field adds an arbitrary input field.
func (s *StepBuilder) Field(f domain.Field) *StepBuilder {
	s.step.Inputs = append(s.step.Inputs, f)
	return s
}

// Single adds a field holding one of options.
func (s *StepBuilder) Single(name string, options ...string) *StepBuilder {
	return s.Field(domain.Field{Name: name, Kind: domain.FieldSingle, Options: options})
}

// Multi adds a field holding any subset of options.
func (s *StepBuilder) Multi(name string, options ...string) *StepBuilder {
	return s.Field(domain.Field{Name: name, Kind: domain.FieldMulti, Options: options})
}

// Scale adds a numeric field bounded by min and max.
func (s *StepBuilder) Scale(name string, min, max float64) *StepBuilder {
	return s.Field(domain.Field{Name: name, Kind: domain.FieldScale, Min: min, Max: max})
}

// Text adds a free-text field. A maxLength of zero means unbounded.
func (s *StepBuilder) Text(name string, maxLength int) *StepBuilder {
	return s.Field(domain.Field{Name: name, Kind: domain.FieldText, MaxLength: maxLength})
}

// Toggle adds a yes/no field.
func (s *StepBuilder) Toggle(name string) *StepBuilder {
	return s.Field(domain.Field{Name: name, Kind: domain.FieldToggle})
}

// Label sets the label of the most recently added field.
func (s *StepBuilder) Label(label string) *StepBuilder {
	if n := len(s.step.Inputs); n > 0 {
		s.step.Inputs[n-1].Label = label
	}
	return s
}

// Require marks fields as required before Advance.
func (s *StepBuilder) Require(fields ...string) *StepBuilder {
	s.step.Required = append(s.step.Required, fields...)
	return s
}

// Skippable allows Skip on the step.
func (s *StepBuilder) Skippable() *StepBuilder {
	s.step.Skippable = true
	return s
}

// SkipTo makes Skip jump to target instead of the regular successor.
func (s *StepBuilder) SkipTo(target string) *StepBuilder {
	s.step.Skippable = true
	s.step.SkipTo = target
	return s
}

// Go sets the unconditional successor.
func (s *StepBuilder) Go(target string) *StepBuilder {
	s.step.Next = target
	return s
}

// Branch adds a conditional transition, checked in the order added and
// before the unconditional successor.
func (s *StepBuilder) Branch(condition, target string) *StepBuilder {
	s.step.Transitions = append(s.step.Transitions, domain.Transition{
		Condition: condition,
		To:        target,
	})
	return s
}

// Resolve sets a programmatic successor. It wins over declared edges
// whenever it returns a step ID.
func (s *StepBuilder) Resolve(fn domain.NextFunc) *StepBuilder {
	s.step.Resolve = fn
	return s
}

// Terminal marks the step as the last one: advancing from it submits.
func (s *StepBuilder) Terminal() *StepBuilder {
	s.step.Next = domain.Terminal
	s.step.Transitions = nil
	return s
}

// Build returns the underlying domain.Step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	return s.step
}
