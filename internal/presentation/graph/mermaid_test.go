package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stepwise/internal/presentation/graph"
	"github.com/aretw0/stepwise/pkg/domain"
)

func toggle(name string) []domain.Field {
	return []domain.Field{{Name: name, Kind: domain.FieldToggle}}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		flow     domain.Flow
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Step Shapes",
			flow: domain.Flow{ID: "f", Entry: "start", Steps: []domain.Step{
				{ID: "start", Inputs: toggle("a"), Next: "ask"},
				{ID: "ask", Title: "Ask", Inputs: toggle("b"), Required: []string{"b"}, Next: "note"},
				{ID: "note", Inputs: toggle("c")},
			}},
			contains: []string{
				`start(("start"))`,
				`ask[/"Ask"/]`,
				`note["note"]`,
				`note --> stepwise_submit`,
				`stepwise_submit(["submit"])`,
			},
		},
		{
			name: "ID Sanitization",
			flow: domain.Flow{ID: "f", Steps: []domain.Step{
				{ID: "hyphen-ated", Inputs: toggle("a"), Next: "path/to.step"},
				{ID: "path/to.step", Inputs: toggle("b")},
			}},
			contains: []string{
				`hyphen_ated --> path_to_step`,
				`path_to_step["path/to.step"]`,
			},
		},
		{
			name: "Transitions",
			flow: domain.Flow{ID: "f", Steps: []domain.Step{
				{
					ID:     "A",
					Inputs: toggle("x"),
					Transitions: []domain.Transition{
						{To: "B", Condition: `mood == "low"`},
						{To: domain.Terminal},
					},
					Skippable: true,
					SkipTo:    "B",
				},
				{ID: "B", Inputs: toggle("y")},
			}},
			contains: []string{
				`A -- "mood == 'low'" --> B`,
				`A --> stepwise_submit`,
				`A -. "skip" .-> B`,
			},
		},
		{
			name: "Overlay",
			flow: domain.Flow{ID: "f", Steps: []domain.Step{
				{ID: "a", Inputs: toggle("x"), Next: "b"},
				{ID: "b", Inputs: toggle("y")},
			}},
			overlay: graph.OverlayFromView(domain.View{History: []string{"a", "a", "b"}, CurrentStepID: "b"}),
			contains: []string{
				"class a visited;",
				"class b current;",
			},
			excludes: []string{
				"class b visited;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.flow, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnwanted substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "class a visited;") > 1 {
				t.Errorf("visited steps must be deduplicated:\n%v", got)
			}
		})
	}
}
