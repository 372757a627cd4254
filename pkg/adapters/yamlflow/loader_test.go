package yamlflow_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/aretw0/stepwise/pkg/adapters/yamlflow"
	"github.com/aretw0/stepwise/pkg/domain"
	contract "github.com/aretw0/stepwise/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moodYAML = `
title: Mood check-in
entry: primary
steps:
  - id: primary
    inputs:
      - name: primary_mood
        kind: single
        options: [anxious, sad, calm]
    required: [primary_mood]
    next: intensity
  - id: intensity
    inputs:
      - name: intensity
        kind: scale
        min: 1
        max: 5
    required: [intensity]
    transitions:
      - to: support
        condition: intensity >= 4
  - id: support
    skippable: true
    inputs:
      - name: notes
        kind: text
        max_length: 280
recommendations:
  - name: mood
    tiers:
      - name: scored
        fields: [primary_mood, intensity]
      - name: primary
        fields: [primary_mood]
    rules:
      - key: [anxious, 5]
        text: Reach out to someone you trust.
      - key: [anxious]
        text: Slow your breathing.
    fallback: Notice how you feel.
`

func TestDecode(t *testing.T) {
	flow, err := yamlflow.Decode([]byte(moodYAML))
	require.NoError(t, err)

	assert.Equal(t, "Mood check-in", flow.Title)
	require.Len(t, flow.Steps, 3)
	assert.Equal(t, domain.FieldScale, flow.Steps[1].Inputs[0].Kind)
	assert.Equal(t, 5.0, flow.Steps[1].Inputs[0].Max)
	assert.Equal(t, "intensity >= 4", flow.Steps[1].Transitions[0].Condition)
	assert.True(t, flow.Steps[2].Skippable)
	assert.Equal(t, 280, flow.Steps[2].Inputs[0].MaxLength)

	require.Len(t, flow.Recommendations, 1)
	assert.Equal(t, []string{"anxious", "5"}, flow.Recommendations[0].Rules[0].Key, "numbers are coerced to keys")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "steps: [unclosed"},
		{"empty", ""},
		{"unknown key", "id: x\nstepz: []\n"},
		{"wrong shape", "id: x\nsteps: hello\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := yamlflow.Decode([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrInvalidFlow)
		})
	}
}

func TestLoader_Contract(t *testing.T) {
	fsys := fstest.MapFS{
		"mood.yaml":   {Data: []byte(moodYAML)},
		"journal.yml": {Data: []byte("title: Journal\nsteps:\n  - id: entry\n")},
		"README.md":   {Data: []byte("ignored")},
	}
	loader := yamlflow.New(fsys)

	contract.FlowLoaderContractTest(t, loader, []domain.Flow{
		{ID: "journal", Title: "Journal", Steps: make([]domain.Step, 1)},
		{ID: "mood", Title: "Mood check-in", Steps: make([]domain.Step, 3)},
	})
}

func TestLoader_IDMismatch(t *testing.T) {
	loader := yamlflow.New(fstest.MapFS{
		"mood.yaml": {Data: []byte("id: other\nsteps:\n  - id: a\n")},
	})
	_, err := loader.GetFlow("mood")
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)
}

func TestLoader_RejectsPathLikeIDs(t *testing.T) {
	loader := yamlflow.New(fstest.MapFS{})
	_, err := loader.GetFlow("../secrets")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestLoader_Collision(t *testing.T) {
	loader := yamlflow.New(fstest.MapFS{
		"mood.yaml": {Data: []byte("steps: []")},
		"mood.yml":  {Data: []byte("steps: []")},
	})
	_, err := loader.ListFlows()
	assert.ErrorContains(t, err, "collision")
}

func TestNewDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mood.yaml"), []byte(moodYAML), 0o644))

	flow, err := yamlflow.NewDir(dir).GetFlow("mood")
	require.NoError(t, err)
	assert.Equal(t, "mood", flow.ID)
}
