// Package recommend resolves recommendation text from answers using tiered rule tables.
//
// A table lists tiers from most to least specific. Each tier names the
// fields whose values form the lookup key. Resolution walks the tiers in
// order, skips any tier with an unanswered field, and returns the first exact
// key match. When nothing matches, the table's fallback is returned, so a
// compiled table always yields text.
package recommend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

const keySep = "\x1f"

// Resolution explains which rule produced a recommendation.
type Resolution struct {
	Text     string   `json:"text"`
	Tier     string   `json:"tier,omitempty"`
	Key      []string `json:"key,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
}

// Resolver is a compiled, immutable rule table.
type Resolver struct {
	name     string
	tiers    []domain.Tier
	fields   []string
	index    map[string]string
	fallback string
}

// New validates table and compiles it. A missing fallback is reported as
// domain.ErrUnresolvedRecommendation, other defects as domain.ErrInvalidFlow.
func New(table domain.RuleTable) (*Resolver, error) {
	if table.Fallback == "" {
		return nil, fmt.Errorf("%w: table %q has no fallback", domain.ErrUnresolvedRecommendation, table.Name)
	}

	r := &Resolver{
		name:     table.Name,
		index:    make(map[string]string, len(table.Rules)),
		fallback: table.Fallback,
	}

	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	seenTier := map[string]bool{}
	seenField := map[string]bool{}
	for _, tier := range table.Tiers {
		if len(tier.Fields) == 0 {
			report("tier %q has no fields", tier.Name)
			continue
		}
		if tier.Name == "" {
			tier.Name = strings.Join(tier.Fields, "+")
		}
		if seenTier[tier.Name] {
			report("duplicate tier %q", tier.Name)
			continue
		}
		seenTier[tier.Name] = true
		r.tiers = append(r.tiers, domain.Tier{Name: tier.Name, Fields: append([]string(nil), tier.Fields...)})
		for _, f := range tier.Fields {
			if !seenField[f] {
				seenField[f] = true
				r.fields = append(r.fields, f)
			}
		}
	}

	for i, rule := range table.Rules {
		tier, err := r.tierFor(rule)
		if err != nil {
			report("rule %d %v: %v", i, rule.Key, err)
			continue
		}
		if rule.Text == "" {
			report("rule %d %v: empty text", i, rule.Key)
			continue
		}
		k := indexKey(tier.Name, rule.Key)
		if _, dup := r.index[k]; dup {
			report("rule %d: duplicate key %v in tier %q", i, rule.Key, tier.Name)
			continue
		}
		r.index[k] = rule.Text
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: table %q: %w", domain.ErrInvalidFlow, table.Name, errors.Join(problems...))
	}
	return r, nil
}

func (r *Resolver) tierFor(rule domain.Rule) (domain.Tier, error) {
	if rule.Tier != "" {
		for _, t := range r.tiers {
			if t.Name == rule.Tier {
				if len(t.Fields) != len(rule.Key) {
					return t, fmt.Errorf("key has %d values, tier %q reads %d fields", len(rule.Key), t.Name, len(t.Fields))
				}
				return t, nil
			}
		}
		return domain.Tier{}, fmt.Errorf("unknown tier %q", rule.Tier)
	}

	var match []domain.Tier
	for _, t := range r.tiers {
		if len(t.Fields) == len(rule.Key) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 0:
		return domain.Tier{}, fmt.Errorf("no tier reads %d fields", len(rule.Key))
	case 1:
		return match[0], nil
	default:
		return domain.Tier{}, fmt.Errorf("key length matches %d tiers, name one explicitly", len(match))
	}
}

func indexKey(tier string, values []string) string {
	return tier + keySep + strings.Join(values, keySep)
}

// Name returns the table name.
func (r *Resolver) Name() string {
	return r.name
}

// Fallback returns the text used when no tier matches.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Fields lists every field the table reads, in tier order.
func (r *Resolver) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Reads reports whether field takes part in any tier key.
func (r *Resolver) Reads(field string) bool {
	for _, f := range r.fields {
		if f == field {
			return true
		}
	}
	return false
}

// Resolve returns the recommendation for answers. It never fails.
func (r *Resolver) Resolve(answers domain.Answers) string {
	return r.Explain(answers).Text
}

// Explain is Resolve plus the tier and key that matched.
func (r *Resolver) Explain(answers domain.Answers) Resolution {
	for _, tier := range r.tiers {
		key, ok := tierKey(tier, answers)
		if !ok {
			continue
		}
		if text, found := r.index[indexKey(tier.Name, key)]; found {
			return Resolution{Text: text, Tier: tier.Name, Key: key}
		}
	}
	return Resolution{Text: r.fallback, Fallback: true}
}

func tierKey(tier domain.Tier, answers domain.Answers) ([]string, bool) {
	key := make([]string, 0, len(tier.Fields))
	for _, f := range tier.Fields {
		if !answers.Satisfies(f) {
			return nil, false
		}
		key = append(key, answers.Text(f))
	}
	return key, true
}

// Compile builds resolvers for every table, preserving order.
func Compile(tables []domain.RuleTable) ([]*Resolver, error) {
	out := make([]*Resolver, 0, len(tables))
	for _, t := range tables {
		r, err := New(t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ResolveAll resolves every table and keys the results by table name.
func ResolveAll(resolvers []*Resolver, answers domain.Answers) map[string]string {
	if len(resolvers) == 0 {
		return nil
	}
	out := make(map[string]string, len(resolvers))
	for _, r := range resolvers {
		out[r.Name()] = r.Resolve(answers)
	}
	return out
}
