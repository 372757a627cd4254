package dsl

import "github.com/aretw0/stepwise/pkg/domain"

// TableBuilder configures one recommendation rule table.
type TableBuilder struct {
	table domain.RuleTable
}

// Tier appends a key-reduction tier. Add the most specific tier first.
func (t *TableBuilder) Tier(name string, fields ...string) *TableBuilder {
	t.table.Tiers = append(t.table.Tiers, domain.Tier{Name: name, Fields: fields})
	return t
}

// Rule maps key to text. The tier is picked by the key length, so use
// TierRule when two tiers have the same arity.
func (t *TableBuilder) Rule(text string, key ...string) *TableBuilder {
	t.table.Rules = append(t.table.Rules, domain.Rule{Key: key, Text: text})
	return t
}

// TierRule maps key to text within the named tier.
func (t *TableBuilder) TierRule(tier, text string, key ...string) *TableBuilder {
	t.table.Rules = append(t.table.Rules, domain.Rule{Key: key, Tier: tier, Text: text})
	return t
}

// Fallback sets the text used when no rule matches.
func (t *TableBuilder) Fallback(text string) *TableBuilder {
	t.table.Fallback = text
	return t
}

// Build returns the underlying domain.RuleTable.
func (t *TableBuilder) Build() domain.RuleTable {
	return t.table
}
