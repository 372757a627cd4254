package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// SetSeparator joins set members when a set is rendered as a single key.
const SetSeparator = "+"

// Set is a sorted, duplicate-free collection of string members.
// Methods never modify the receiver; they return a new Set.
type Set []string

// NewSet builds a Set from arbitrary members, dropping duplicates.
func NewSet(members ...string) Set {
	out := make(Set, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether member is in the set.
func (s Set) Contains(member string) bool {
	i := sort.SearchStrings(s, member)
	return i < len(s) && s[i] == member
}

// With returns a copy of the set including member.
func (s Set) With(member string) Set {
	if s.Contains(member) {
		return s.Clone()
	}
	out := make(Set, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, member)
	sort.Strings(out)
	return out
}

// Without returns a copy of the set excluding member.
func (s Set) Without(member string) Set {
	out := make(Set, 0, len(s))
	for _, m := range s {
		if m != member {
			out = append(out, m)
		}
	}
	return out
}

// Toggle adds member when absent and removes it when present.
func (s Set) Toggle(member string) Set {
	if s.Contains(member) {
		return s.Without(member)
	}
	return s.With(member)
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)
	return out
}

func (s Set) String() string {
	return strings.Join(s, SetSeparator)
}

// Answers is an immutable snapshot of collected answers keyed by field name.
// Values are string, int, float64, bool or Set.
type Answers struct {
	values map[string]any
}

// NewAnswers copies values into a snapshot, normalizing slices into Sets and
// numeric types into int or float64.
func NewAnswers(values map[string]any) Answers {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = Normalize(v)
	}
	return Answers{values: out}
}

// Normalize converts a raw value into one of the canonical answer types.
// Unknown types are returned unchanged.
func Normalize(v any) any {
	switch val := v.(type) {
	case Set:
		return NewSet(val...)
	case []string:
		return NewSet(val...)
	case []any:
		members := make([]string, 0, len(val))
		for _, item := range val {
			members = append(members, FormatValue(item))
		}
		return NewSet(members...)
	case int8:
		return int(val)
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint:
		return int(val)
	case uint8:
		return int(val)
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case float32:
		return float64(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}

// FormatValue renders an answer value deterministically.
// Whole floats render without a fractional part so 3 and 3.0 share a key.
func FormatValue(v any) string {
	switch val := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case Set:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Get returns the raw value of a field. Sets are returned as copies.
func (a Answers) Get(field string) (any, bool) {
	v, ok := a.values[field]
	if s, isSet := v.(Set); isSet {
		return s.Clone(), ok
	}
	return v, ok
}

// Has reports whether the field holds any value, including an empty set.
func (a Answers) Has(field string) bool {
	_, ok := a.values[field]
	return ok
}

// Satisfies reports whether the field counts as answered: present and,
// for sets, holding at least one member. Any present scalar counts,
// including "" and zero.
func (a Answers) Satisfies(field string) bool {
	v, ok := a.values[field]
	if !ok {
		return false
	}
	if s, isSet := v.(Set); isSet {
		return len(s) > 0
	}
	return true
}

// Text returns the formatted value of a field, or "" when absent.
func (a Answers) Text(field string) string {
	v, ok := a.values[field]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Set returns the members of a set field. Scalars become one-element sets.
func (a Answers) Set(field string) Set {
	v, ok := a.values[field]
	if !ok {
		return nil
	}
	if s, isSet := v.(Set); isSet {
		return s.Clone()
	}
	return NewSet(FormatValue(v))
}

// Number returns the numeric value of a field.
func (a Answers) Number(field string) (float64, bool) {
	switch v := a.values[field].(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Keys returns the answered field names in lexical order.
func (a Answers) Keys() []string {
	keys := make([]string, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Answers) Len() int {
	return len(a.values)
}

// ToMap returns a mutable copy of the underlying values.
func (a Answers) ToMap() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		if s, isSet := v.(Set); isSet {
			out[k] = s.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// With returns a new snapshot where field holds value.
func (a Answers) With(field string, value any) Answers {
	m := a.ToMap()
	m[field] = Normalize(value)
	return Answers{values: m}
}

// Without returns a new snapshot with the given fields removed.
func (a Answers) Without(fields ...string) Answers {
	m := a.ToMap()
	for _, f := range fields {
		delete(m, f)
	}
	return Answers{values: m}
}

// Equal reports whether both snapshots hold the same keys and values.
func (a Answers) Equal(other Answers) bool {
	if len(a.values) != len(other.values) {
		return false
	}
	for k, v := range a.values {
		ov, ok := other.values[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

func (a Answers) String() string {
	parts := make([]string, 0, len(a.values))
	for _, k := range a.Keys() {
		parts = append(parts, k+"="+a.Text(k))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (a Answers) MarshalJSON() ([]byte, error) {
	if a.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.values)
}

func (a *Answers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*a = NewAnswers(raw)
	return nil
}
