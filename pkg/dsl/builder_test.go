package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/graph"
	"github.com/aretw0/stepwise/pkg/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkin() *Builder {
	b := New("checkin").Title("Daily check-in").Describe("A short check-in.")

	b.Step("feel").
		Prompt("How are you feeling?").
		Single("mood", "calm", "anxious", "low").Label("Mood").
		Require("mood").
		Branch(`mood == "low"`, "support").
		Go("note")

	b.Step("support").
		Toggle("wants_contact").
		Go("note")

	b.Step("note").
		Text("note", 280).
		Skippable().
		Terminal()

	b.Recommend("tip").
		Tier("mood", "mood").
		Rule("Breathe out slowly.", "anxious").
		Fallback("Notice how you feel.")

	return b
}

func TestBuilder_SimpleFlow(t *testing.T) {
	flow, err := checkin().Flow()
	require.NoError(t, err)

	assert.Equal(t, "checkin", flow.ID)
	assert.Equal(t, "Daily check-in", flow.Title)
	assert.Equal(t, "feel", flow.Entry, "entry defaults to the first step")
	require.Len(t, flow.Steps, 3)

	feel := flow.Steps[0]
	assert.Equal(t, []string{"mood"}, feel.Required)
	assert.Equal(t, "Mood", feel.Inputs[0].Label)
	assert.Equal(t, []domain.Transition{{Condition: `mood == "low"`, To: "support"}}, feel.Transitions)
	assert.Equal(t, domain.Terminal, flow.Steps[2].Next)
	assert.True(t, flow.Steps[2].Skippable)

	require.Len(t, flow.Recommendations, 1)
	assert.Equal(t, "Notice how you feel.", flow.Recommendations[0].Fallback)
}

func TestBuilder_StepIsReused(t *testing.T) {
	b := New("f")
	b.Step("a").Single("x", "1")
	b.Step("a").Require("x")

	flow, err := b.Flow()
	require.NoError(t, err)
	require.Len(t, flow.Steps, 1)
	assert.Equal(t, []string{"x"}, flow.Steps[0].Required)
}

func TestBuilder_BranchesResolve(t *testing.T) {
	flow, err := checkin().Flow()
	require.NoError(t, err)
	g, err := graph.New(flow)
	require.NoError(t, err)

	next, err := g.Next(context.Background(), "feel", domain.NewAnswers(map[string]any{"mood": "low"}))
	require.NoError(t, err)
	assert.Equal(t, "support", next)

	next, err = g.Next(context.Background(), "feel", domain.NewAnswers(map[string]any{"mood": "calm"}))
	require.NoError(t, err)
	assert.Equal(t, "note", next)

	resolvers, err := recommend.Compile(flow.Recommendations)
	require.NoError(t, err)
	assert.Equal(t, "Breathe out slowly.", resolvers[0].Resolve(domain.NewAnswers(map[string]any{"mood": "anxious"})))
}

func TestBuilder_Build(t *testing.T) {
	loader, err := checkin().Build()
	require.NoError(t, err)

	ids, err := loader.ListFlows()
	require.NoError(t, err)
	assert.Equal(t, []string{"checkin"}, ids)

	flow, err := loader.GetFlow("checkin")
	require.NoError(t, err)
	assert.Len(t, flow.Steps, 3)
}

func TestBuilder_RejectsBrokenFlows(t *testing.T) {
	t.Run("dangling target", func(t *testing.T) {
		b := New("broken")
		b.Step("a").Single("x", "1").Go("nowhere")

		_, err := b.Flow()
		assert.ErrorIs(t, err, domain.ErrInvalidFlow)
	})

	t.Run("table without fallback", func(t *testing.T) {
		b := New("broken")
		b.Step("a").Single("x", "1")
		b.Recommend("t").Tier("x", "x").Rule("hi", "1")

		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrUnresolvedRecommendation)
	})
}
