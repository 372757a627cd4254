package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultStore_Contract(t *testing.T) {
	store := memory.NewResultStore()
	ports.RunResultStoreContract(t, store)
}

func TestResultStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewResultStore()

	r := &domain.WizardResult{ID: "r1", Recommendations: map[string]string{"mood": "rest"}}
	require.NoError(t, store.Save(ctx, r))
	r.Recommendations["mood"] = "mutated"

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "rest", loaded.Recommendations["mood"])

	loaded.Recommendations["mood"] = "mutated again"
	again, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "rest", again.Recommendations["mood"])
}

func TestResultStore_SaveHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memory.NewResultStore()
	err := store.Save(ctx, &domain.WizardResult{ID: "r1"})
	assert.ErrorIs(t, err, context.Canceled)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
