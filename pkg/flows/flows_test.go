package flows_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/flows"
	"github.com/aretw0/stepwise/pkg/graph"
	"github.com/aretw0/stepwise/pkg/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_AllFlowsCompile(t *testing.T) {
	loader := flows.Loader()

	ids, err := loader.ListFlows()
	require.NoError(t, err)
	assert.Equal(t, []string{"journal", "mood", "peer-support", "self-care", "thought-record"}, ids)

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			flow, err := loader.GetFlow(id)
			require.NoError(t, err)
			assert.NotEmpty(t, flow.Title)

			_, err = graph.New(*flow)
			require.NoError(t, err)

			resolvers, err := recommend.Compile(flow.Recommendations)
			require.NoError(t, err)
			assert.NotEmpty(t, resolvers)
		})
	}
}

func TestMood_Recommendations(t *testing.T) {
	flow, err := flows.Loader().GetFlow("mood")
	require.NoError(t, err)
	resolvers, err := recommend.Compile(flow.Recommendations)
	require.NoError(t, err)
	mood := resolvers[0]

	full := domain.NewAnswers(map[string]any{"primary_mood": "anxious", "secondary_mood": "worried", "intensity": 3})
	assert.Equal(t, "Write the worry down, then ask what you can control in the next hour.", mood.Resolve(full))

	skipped := domain.NewAnswers(map[string]any{"primary_mood": "anxious", "intensity": 2})
	assert.Equal(t, "Ground yourself by naming five things you can see.", mood.Resolve(skipped))

	assert.Equal(t, flow.Recommendations[0].Fallback, mood.Resolve(domain.NewAnswers(nil)))
}

func TestJournal_Branches(t *testing.T) {
	flow, err := flows.Loader().GetFlow("journal")
	require.NoError(t, err)
	g, err := graph.New(*flow)
	require.NoError(t, err)

	ctx := context.Background()
	for choice, want := range map[string]string{
		"gratitude": "gratitude",
		"challenge": "challenge",
		"free":      "free_write",
	} {
		next, err := g.Next(ctx, "prompt", domain.NewAnswers(map[string]any{"prompt_choice": choice}))
		require.NoError(t, err)
		assert.Equal(t, want, next, choice)
	}
}

func TestPeerSupport_UrgentDetour(t *testing.T) {
	flow, err := flows.Loader().GetFlow("peer-support")
	require.NoError(t, err)
	g, err := graph.New(*flow)
	require.NoError(t, err)

	ctx := context.Background()
	next, err := g.Next(ctx, "urgency", domain.NewAnswers(map[string]any{"urgency": 5}))
	require.NoError(t, err)
	assert.Equal(t, "safety", next)

	next, err = g.Next(ctx, "urgency", domain.NewAnswers(map[string]any{"urgency": 2}))
	require.NoError(t, err)
	assert.Equal(t, "contact", next)
}
