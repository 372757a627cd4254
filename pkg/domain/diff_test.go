package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	active := StatusActive
	submitting := StatusSubmitting
	yes := true

	tests := []struct {
		name     string
		old      *View
		new      *View
		wantDiff *ViewDiff // nil means no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &View{
				SessionID:     "sess-1",
				CurrentStepID: "primary",
				Status:        StatusActive,
				CanAdvance:    true,
				Answers:       NewAnswers(map[string]any{"a": "x"}),
				History:       []string{"primary"},
			},
			wantDiff: &ViewDiff{
				SessionID:     "sess-1",
				CurrentStepID: &[]string{"primary"}[0],
				Status:        &active,
				CanAdvance:    &yes,
				Answers:       map[string]any{"a": "x"},
				History:       []string{"primary"},
			},
		},
		{
			name: "No Changes",
			old: &View{
				SessionID:     "sess-1",
				CurrentStepID: "primary",
				Status:        StatusActive,
				Answers:       NewAnswers(map[string]any{"a": "x"}),
				History:       []string{"primary"},
			},
			new: &View{
				SessionID:     "sess-1",
				CurrentStepID: "primary",
				Status:        StatusActive,
				Answers:       NewAnswers(map[string]any{"a": "x"}),
				History:       []string{"primary"},
			},
			wantDiff: nil,
		},
		{
			name: "Status Change",
			old: &View{
				SessionID:     "sess-1",
				CurrentStepID: "last",
				Status:        StatusActive,
				History:       []string{"last"},
			},
			new: &View{
				SessionID:     "sess-1",
				CurrentStepID: "last",
				Status:        StatusSubmitting,
				History:       []string{"last"},
			},
			wantDiff: &ViewDiff{
				SessionID: "sess-1",
				Status:    &submitting,
			},
		},
		{
			name: "Answers Added, Modified and Deleted",
			old: &View{
				SessionID: "sess-1",
				Answers:   NewAnswers(map[string]any{"keep": 1, "mod": "a", "del": "x"}),
			},
			new: &View{
				SessionID: "sess-1",
				Answers:   NewAnswers(map[string]any{"keep": 1, "mod": "b", "add": []string{"t"}}),
			},
			wantDiff: &ViewDiff{
				SessionID: "sess-1",
				Answers: map[string]any{
					"mod": "b",
					"add": Set{"t"},
					"del": nil,
				},
			},
		},
		{
			name: "History Truncated By Back",
			old: &View{
				SessionID:     "sess-1",
				CurrentStepID: "b",
				History:       []string{"a", "b"},
			},
			new: &View{
				SessionID:     "sess-1",
				CurrentStepID: "a",
				History:       []string{"a"},
			},
			wantDiff: &ViewDiff{
				SessionID:     "sess-1",
				CurrentStepID: &[]string{"a"}[0],
				History:       []string{"a"},
			},
		},
		{
			name: "Recommendation Changed",
			old: &View{
				SessionID:       "sess-1",
				Recommendations: map[string]string{"mood": "fallback"},
			},
			new: &View{
				SessionID:       "sess-1",
				Recommendations: map[string]string{"mood": "breathe"},
			},
			wantDiff: &ViewDiff{
				SessionID:       "sess-1",
				Recommendations: map[string]string{"mood": "breathe"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)

			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("expected nil diff, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected diff, got nil")
			}
			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() mismatch\ngot:  %+v\nwant: %+v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiff_JSONSerialization(t *testing.T) {
	d := &ViewDiff{
		SessionID: "s1",
		Answers:   map[string]any{"gone": nil},
	}

	bytes, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	s := string(bytes)
	if !strings.Contains(s, `"gone":null`) {
		t.Errorf("expected deletion marker in %s", s)
	}
	if strings.Contains(s, "current_step_id") {
		t.Errorf("unchanged fields must be omitted, got %s", s)
	}
}
