package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	prefix := "contract-result-" + time.Now().Format("20060102150405")
	captured := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	newResult := func(id string) *domain.WizardResult {
		return &domain.WizardResult{
			ID:        id,
			SessionID: "session-" + id,
			FlowID:    "mood",
			Answers: domain.NewAnswers(map[string]any{
				"primary_mood": "anxious",
				"intensity":    3,
				"triggers":     domain.NewSet("work", "sleep"),
			}),
			Recommendations: map[string]string{"mood": "Breathe slowly."},
			CapturedAt:      captured,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-save"
		want := newResult(id)

		err := store.Save(ctx, want)
		require.NoError(t, err, "Save should not return error")

		got, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.SessionID, got.SessionID)
		assert.Equal(t, want.FlowID, got.FlowID)
		assert.True(t, want.CapturedAt.Equal(got.CapturedAt), "captured_at survives storage")
		assert.Equal(t, "Breathe slowly.", got.Recommendations["mood"])
		assert.Equal(t, "anxious", got.Answers.Text("primary_mood"))
		assert.Equal(t, domain.NewSet("sleep", "work"), got.Answers.Set("triggers"))
		// JSON stores bring numbers back as int after normalization.
		n, ok := got.Answers.Number("intensity")
		assert.True(t, ok)
		assert.Equal(t, 3.0, n)

		_ = store.Delete(ctx, id)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		id := prefix + "-overwrite"
		first := newResult(id)
		require.NoError(t, store.Save(ctx, first))

		second := newResult(id)
		second.Recommendations = map[string]string{"mood": "Go for a walk."}
		require.NoError(t, store.Save(ctx, second))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Go for a walk.", got.Recommendations["mood"])

		_ = store.Delete(ctx, id)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, store.Save(ctx, newResult(id)))

		err := store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "-1"
		id2 := prefix + "-2"
		require.NoError(t, store.Save(ctx, newResult(id1)))
		require.NoError(t, store.Save(ctx, newResult(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
