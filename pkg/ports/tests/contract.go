package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// FlowLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.FlowLoader.
// expected holds the flows the loader was set up with; only identity and titles are compared.
func FlowLoaderContractTest(t *testing.T, loader ports.FlowLoader, expected []domain.Flow) {
	t.Helper()

	t.Run("GetFlow_Success", func(t *testing.T) {
		for _, want := range expected {
			got, err := loader.GetFlow(want.ID)
			if err != nil {
				t.Fatalf("unexpected error getting flow %s: %v", want.ID, err)
			}
			if got.ID != want.ID {
				t.Errorf("id mismatch: got %q, want %q", got.ID, want.ID)
			}
			if got.Title != want.Title {
				t.Errorf("title mismatch for %s: got %q, want %q", want.ID, got.Title, want.Title)
			}
			if len(got.Steps) != len(want.Steps) {
				t.Errorf("step count mismatch for %s: got %d, want %d", want.ID, len(got.Steps), len(want.Steps))
			}
		}
	})

	t.Run("GetFlow_NotFound", func(t *testing.T) {
		_, err := loader.GetFlow("non-existent-flow")
		if !errors.Is(err, domain.ErrFlowNotFound) {
			t.Errorf("expected ErrFlowNotFound, got %v", err)
		}
	})

	t.Run("ListFlows", func(t *testing.T) {
		ids, err := loader.ListFlows()
		if err != nil {
			t.Fatalf("unexpected error listing flows: %v", err)
		}

		if len(ids) != len(expected) {
			t.Errorf("expected %d flows, got %d", len(expected), len(ids))
		}

		for i := 1; i < len(ids); i++ {
			if ids[i-1] > ids[i] {
				t.Errorf("flows not in lexical order: %v", ids)
				break
			}
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for _, f := range expected {
			if !lookup[f.ID] {
				t.Errorf("flow %s missing from list", f.ID)
			}
		}
	})
}
