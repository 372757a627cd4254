package gate_test

import (
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAdvance(t *testing.T) {
	step := domain.Step{ID: "feelings", Required: []string{"primary_mood", "tags"}}

	tests := []struct {
		name    string
		answers map[string]any
		want    bool
		missing []string
	}{
		{"nothing answered", nil, false, []string{"primary_mood", "tags"}},
		{"scalar only", map[string]any{"primary_mood": "sad"}, false, []string{"tags"}},
		{"empty set", map[string]any{"primary_mood": "sad", "tags": []string{}}, false, []string{"tags"}},
		{"empty string counts", map[string]any{"primary_mood": "", "tags": []string{"work"}}, true, nil},
		{"all answered", map[string]any{"primary_mood": "sad", "tags": []string{"work"}}, true, nil},
		{"extra fields ignored", map[string]any{"primary_mood": "sad", "tags": []string{"x"}, "other": 1}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := domain.NewAnswers(tt.answers)
			assert.Equal(t, tt.want, gate.CanAdvance(step, a))
			assert.Equal(t, tt.missing, gate.Missing(step, a))
		})
	}
}

func TestCanAdvance_NoRequirements(t *testing.T) {
	assert.True(t, gate.CanAdvance(domain.Step{ID: "intro"}, domain.Answers{}))
	assert.NoError(t, gate.Check(domain.Step{ID: "intro"}, domain.Answers{}))
}

func TestCheck_ReturnsTypedError(t *testing.T) {
	step := domain.Step{ID: "primary", Required: []string{"primary_mood"}}

	err := gate.Check(step, domain.Answers{})
	require.ErrorIs(t, err, domain.ErrValidationBlocked)

	var blocked *domain.ValidationBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "primary", blocked.StepID)
	assert.Equal(t, []string{"primary_mood"}, blocked.Missing)
}
