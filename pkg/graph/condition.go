package graph

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// ConditionEvaluator decides whether a transition condition holds for the given answers.
type ConditionEvaluator func(ctx context.Context, condition string, answers domain.Answers) (bool, error)

// DefaultEvaluator evaluates the built-in condition language:
//
//	has(field)            field answered (non-empty for sets)
//	empty(field)          field absent or empty
//	field == 'value'      formatted value equals operand (numbers compare numerically)
//	field != 'value'
//	field contains 'v'    set membership, or substring for text
//	field >= 3            numeric comparison, also >, <, <=
//
// Terms may be negated with a leading '!' and combined with && and ||
// (&& binds tighter). Operands may not contain either combinator.
func DefaultEvaluator(_ context.Context, condition string, answers domain.Answers) (bool, error) {
	c, err := ParseCondition(condition)
	if err != nil {
		return false, err
	}
	return c.Eval(answers), nil
}

// Condition is a parsed predicate over answers.
type Condition struct {
	source string
	anyOf  [][]predicate
}

type predicate struct {
	op      string
	field   string
	operand string
	number  float64
	numeric bool
	negate  bool
}

var (
	funcPattern   = regexp.MustCompile(`^(has|empty)\(\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\)$`)
	binaryPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*)\s*(==|!=|>=|<=|>|<)\s*(.+)$`)
	containsRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*)\s+contains\s+(.+)$`)
)

// ParseCondition compiles a condition string.
func ParseCondition(src string) (*Condition, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty condition")
	}

	c := &Condition{source: src}
	for _, alt := range strings.Split(src, "||") {
		var clause []predicate
		for _, term := range strings.Split(alt, "&&") {
			p, err := parsePredicate(strings.TrimSpace(term))
			if err != nil {
				return nil, fmt.Errorf("condition %q: %w", src, err)
			}
			clause = append(clause, p)
		}
		c.anyOf = append(c.anyOf, clause)
	}
	return c, nil
}

func parsePredicate(term string) (predicate, error) {
	if term == "" {
		return predicate{}, fmt.Errorf("empty term")
	}

	if strings.HasPrefix(term, "!") {
		p, err := parsePredicate(strings.TrimSpace(term[1:]))
		if err != nil {
			return p, err
		}
		p.negate = !p.negate
		return p, nil
	}

	if m := funcPattern.FindStringSubmatch(term); m != nil {
		return predicate{op: m[1], field: m[2]}, nil
	}

	if m := containsRe.FindStringSubmatch(term); m != nil {
		return predicate{op: "contains", field: m[1], operand: unquote(m[2])}, nil
	}

	if m := binaryPattern.FindStringSubmatch(term); m != nil {
		p := predicate{op: m[2], field: m[1], operand: unquote(m[3])}
		if f, err := strconv.ParseFloat(p.operand, 64); err == nil {
			p.number = f
			p.numeric = true
		}
		switch p.op {
		case ">", ">=", "<", "<=":
			if !p.numeric {
				return p, fmt.Errorf("operator %s needs a numeric operand, got %q", p.op, p.operand)
			}
		}
		return p, nil
	}

	return predicate{}, fmt.Errorf("cannot parse %q", term)
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Eval reports whether the condition holds.
func (c *Condition) Eval(answers domain.Answers) bool {
	for _, clause := range c.anyOf {
		ok := true
		for _, p := range clause {
			if !p.eval(answers) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (c *Condition) String() string {
	return c.source
}

// Fields lists the answer fields the condition reads.
func (c *Condition) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, clause := range c.anyOf {
		for _, p := range clause {
			if !seen[p.field] {
				seen[p.field] = true
				out = append(out, p.field)
			}
		}
	}
	return out
}

func (p predicate) eval(answers domain.Answers) bool {
	result := p.evalRaw(answers)
	if p.negate {
		return !result
	}
	return result
}

func (p predicate) evalRaw(answers domain.Answers) bool {
	switch p.op {
	case "has":
		return answers.Satisfies(p.field)
	case "empty":
		return !answers.Satisfies(p.field)
	case "==":
		return p.equals(answers)
	case "!=":
		return !p.equals(answers)
	case "contains":
		v, ok := answers.Get(p.field)
		if !ok {
			return false
		}
		if s, isStr := v.(string); isStr {
			return strings.Contains(s, p.operand)
		}
		return answers.Set(p.field).Contains(p.operand)
	default:
		n, ok := answers.Number(p.field)
		if !ok {
			return false
		}
		switch p.op {
		case ">":
			return n > p.number
		case ">=":
			return n >= p.number
		case "<":
			return n < p.number
		case "<=":
			return n <= p.number
		}
	}
	return false
}

func (p predicate) equals(answers domain.Answers) bool {
	if !answers.Has(p.field) {
		return false
	}
	if p.numeric {
		if n, ok := answers.Number(p.field); ok {
			return n == p.number
		}
	}
	return answers.Text(p.field) == p.operand
}
