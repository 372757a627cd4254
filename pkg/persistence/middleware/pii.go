package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Mask replaces the value of every answer whose field name matches a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.ResultStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks answers whose field names
// match any of the patterns. Masking happens on Save only; the caller's
// result is left untouched.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ResultStore) ports.ResultStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, result *domain.WizardResult) error {
	masked := *result
	masked.Answers = maskAnswers(result.Answers, m.patterns)
	return m.next.Save(ctx, &masked)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.WizardResult, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Answers are immutable snapshots, so With returns a copy and the input is never modified.
func maskAnswers(answers domain.Answers, patterns []*regexp.Regexp) domain.Answers {
	out := answers
	for _, field := range answers.Keys() {
		for _, p := range patterns {
			if p.MatchString(field) {
				out = out.With(field, Mask)
				break
			}
		}
	}
	return out
}
