// Package selection holds the in-progress answers of a single wizard session.
//
// A Store is owned by exactly one controller and is not safe for concurrent
// use; the controller serializes access. Snapshots are immutable and may be
// shared freely.
package selection

import "github.com/aretw0/stepwise/pkg/domain"

// Store is the mutable answer set of one session.
type Store struct {
	values map[string]any
	// toggled marks sets that ToggleInSet created on an absent field.
	toggled map[string]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]any), toggled: make(map[string]bool)}
}

// FromAnswers seeds a store with a previous snapshot.
func FromAnswers(a domain.Answers) *Store {
	return &Store{values: a.ToMap(), toggled: make(map[string]bool)}
}

// SetScalar overwrites field with value.
func (s *Store) SetScalar(field string, value any) {
	s.values[field] = domain.Normalize(value)
	delete(s.toggled, field)
}

// ToggleInSet adds value to the set held by field, or removes it if present.
// A scalar held by field is replaced by a set.
//
// A set that toggling created on an absent field is removed again once its
// last member is toggled off, so the field returns to absent. Any other set
// emptied this way stays present as an explicit empty answer.
func (s *Store) ToggleInSet(field, value string) {
	raw, present := s.values[field]
	current, isSet := raw.(domain.Set)
	if !present || !isSet {
		s.toggled[field] = !present
	}

	next := current.Toggle(value)
	if len(next) == 0 && s.toggled[field] {
		s.ClearField(field)
		return
	}
	s.values[field] = next
}

// ClearField removes field entirely.
func (s *Store) ClearField(field string) {
	delete(s.values, field)
	delete(s.toggled, field)
}

// ClearFields removes several fields at once.
func (s *Store) ClearFields(fields ...string) {
	for _, f := range fields {
		s.ClearField(f)
	}
}

// Clear removes every answer.
func (s *Store) Clear() {
	s.values = make(map[string]any)
	s.toggled = make(map[string]bool)
}

// Snapshot returns an immutable copy of the current answers.
func (s *Store) Snapshot() domain.Answers {
	return domain.NewAnswers(s.values)
}

// Len reports how many fields hold a value.
func (s *Store) Len() int {
	return len(s.values)
}
