package schema

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Type defines the contract for answer validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "text", "scale[1..5]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// EnumType accepts one string out of a fixed list.
type EnumType struct {
	options []string
}

func (t *EnumType) Name() string { return "one of " + strings.Join(t.options, "|") }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !slices.Contains(t.options, s) {
		return fmt.Errorf("%q is not an option", s)
	}
	return nil
}

// SetType accepts a set whose members all belong to a fixed list.
// An empty set is valid.
type SetType struct {
	options []string
}

func (t *SetType) Name() string { return "set of " + strings.Join(t.options, "|") }

func (t *SetType) Validate(value any) error {
	set, ok := value.(domain.Set)
	if !ok {
		return fmt.Errorf("expected set, got %T", value)
	}
	for _, m := range set {
		if !slices.Contains(t.options, m) {
			return fmt.Errorf("%q is not an option", m)
		}
	}
	return nil
}

// RangeType accepts a number within [min, max].
type RangeType struct {
	min, max float64
}

func (t *RangeType) Name() string { return fmt.Sprintf("scale[%v..%v]", t.min, t.max) }

func (t *RangeType) Validate(value any) error {
	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case float64:
		n = v
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	if n < t.min || n > t.max {
		return fmt.Errorf("%v is outside %v..%v", n, t.min, t.max)
	}
	return nil
}

// TextType accepts free text up to a rune limit. Zero means unlimited.
type TextType struct {
	maxLength int
}

func (t *TextType) Name() string { return "text" }

func (t *TextType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if t.maxLength > 0 && utf8.RuneCountInString(s) > t.maxLength {
		return fmt.Errorf("longer than %d characters", t.maxLength)
	}
	return nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// Enum creates a single-choice validator.
func Enum(options ...string) Type { return &EnumType{options: options} }

// Members creates a multi-choice validator.
func Members(options ...string) Type { return &SetType{options: options} }

// Range creates an inclusive numeric range validator.
func Range(min, max float64) Type { return &RangeType{min: min, max: max} }

// Text creates a free-text validator.
func Text(maxLength int) Type { return &TextType{maxLength: maxLength} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ForField returns the validator matching a field's kind.
func ForField(f domain.Field) (Type, error) {
	switch f.Kind {
	case domain.FieldSingle:
		return Enum(f.Options...), nil
	case domain.FieldMulti:
		return Members(f.Options...), nil
	case domain.FieldScale:
		return Range(f.Min, f.Max), nil
	case domain.FieldText:
		return Text(f.MaxLength), nil
	case domain.FieldToggle:
		return Bool(), nil
	default:
		return nil, fmt.Errorf("field %s: unsupported kind %q", f.Name, f.Kind)
	}
}

// FromFields builds a schema covering every given field.
func FromFields(fields []domain.Field) (Schema, error) {
	result := make(Schema, len(fields))
	for _, f := range fields {
		t, err := ForField(f)
		if err != nil {
			return nil, err
		}
		result[f.Name] = t
	}
	return result, nil
}
