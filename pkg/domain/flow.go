package domain

// Terminal is the reserved target meaning "no further step; submit".
const Terminal = "@end"

// FieldKind selects how a field is edited and validated.
type FieldKind string

const (
	FieldSingle FieldKind = "single" // one option out of Options
	FieldMulti  FieldKind = "multi"  // any subset of Options, stored as a Set
	FieldScale  FieldKind = "scale"  // number between Min and Max
	FieldText   FieldKind = "text"   // free text, bounded by MaxLength
	FieldToggle FieldKind = "toggle" // boolean
)

// Field describes one answer slot written by a step.
type Field struct {
	Name      string    `json:"name" yaml:"name" mapstructure:"name"`
	Kind      FieldKind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Options   []string  `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Min       float64   `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max       float64   `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	MaxLength int       `json:"max_length,omitempty" yaml:"max_length,omitempty" mapstructure:"max_length"`
}

// Transition is a conditional edge out of a step.
// An empty Condition always matches.
type Transition struct {
	To        string `json:"to" yaml:"to" mapstructure:"to"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
}

// NextFunc picks the next step programmatically. Returning "" defers to the
// declarative transitions.
type NextFunc func(answers Answers) string

// Step is a single page of a wizard.
type Step struct {
	ID     string `json:"id" yaml:"id" mapstructure:"id"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`

	// Inputs are the fields this step writes. Skipping clears them.
	Inputs []Field `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`

	// Required must be satisfied before Advance. Subset of Inputs.
	Required []string `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`

	Skippable bool   `json:"skippable,omitempty" yaml:"skippable,omitempty" mapstructure:"skippable"`
	SkipTo    string `json:"skip_to,omitempty" yaml:"skip_to,omitempty" mapstructure:"skip_to"`

	// Next is the unconditional successor. Empty with no matching transition means Terminal.
	Next        string       `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty" mapstructure:"transitions"`

	Resolve NextFunc `json:"-" yaml:"-" mapstructure:"-"`
}

// InputNames lists the names of the step's fields in declaration order.
func (s Step) InputNames() []string {
	names := make([]string, 0, len(s.Inputs))
	for _, f := range s.Inputs {
		names = append(names, f.Name)
	}
	return names
}

// Input looks up a field written by this step.
func (s Step) Input(name string) (Field, bool) {
	for _, f := range s.Inputs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Flow is the static configuration of one wizard.
type Flow struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Entry       string `json:"entry" yaml:"entry" mapstructure:"entry"`
	Steps       []Step `json:"steps" yaml:"steps" mapstructure:"steps"`

	// Recommendations are consulted in order; the first table is the primary one.
	Recommendations []RuleTable `json:"recommendations,omitempty" yaml:"recommendations,omitempty" mapstructure:"recommendations"`
}

// Tier is one key-reduction strategy of a rule table.
type Tier struct {
	Name   string   `json:"name" yaml:"name" mapstructure:"name"`
	Fields []string `json:"fields" yaml:"fields" mapstructure:"fields"`
}

// Rule maps an exact key tuple to a recommendation.
// Tier is optional when the key length identifies a single tier.
type Rule struct {
	Key  []string `json:"key" yaml:"key" mapstructure:"key"`
	Tier string   `json:"tier,omitempty" yaml:"tier,omitempty" mapstructure:"tier"`
	Text string   `json:"text" yaml:"text" mapstructure:"text"`
}

// RuleTable is a tiered lookup from answers to a recommendation string.
// Tiers are ordered most specific first; Fallback is mandatory.
type RuleTable struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Tiers    []Tier `json:"tiers" yaml:"tiers" mapstructure:"tiers"`
	Rules    []Rule `json:"rules" yaml:"rules" mapstructure:"rules"`
	Fallback string `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
}

// FlowSummary is the catalog entry of a flow, as listed by adapters.
type FlowSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Steps       int    `json:"steps"`
}

// Summary describes the flow without its steps.
func (f Flow) Summary() FlowSummary {
	return FlowSummary{ID: f.ID, Title: f.Title, Description: f.Description, Steps: len(f.Steps)}
}
