package schema

import (
	"sort"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// ValidateValue checks a single value for field.
// Values are normalized first, so []string and int64 are accepted.
func (s Schema) ValidateValue(field string, value any) error {
	t, ok := s[field]
	if !ok {
		return &ValidationError{Key: field, Reason: "not defined in schema"}
	}
	value = domain.Normalize(value)
	if err := t.Validate(value); err != nil {
		return &ValidationError{Key: field, Reason: err.Error(), Value: value}
	}
	return nil
}

// Validate checks every answered field against the schema.
// Answers are partial by nature, so absent fields are not errors; keys the
// schema does not define are.
func Validate(schema Schema, answers domain.Answers) error {
	var errs []error
	for _, key := range answers.Keys() {
		value, _ := answers.Get(key)
		if err := schema.ValidateValue(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Fields returns the schema's field names in lexical order.
func (s Schema) Fields() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
