package domain

import (
	"reflect"
	"slices"
)

// ViewDiff represents the changes between two views of the same session.
// It is serialized to JSON for partial updates on streaming clients.
type ViewDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStepID *string `json:"current_step_id,omitempty"`
	Status        *Status `json:"status,omitempty"`
	CanAdvance    *bool   `json:"can_advance,omitempty"`

	// Answers contains only changed, added or deleted keys.
	// Deleted keys are present with a nil value.
	Answers map[string]any `json:"answers,omitempty"`

	// History is sent whole whenever it changes, since Back and Reset truncate it.
	History []string `json:"history,omitempty"`

	// Recommendations contains tables whose text changed.
	Recommendations map[string]string `json:"recommendations,omitempty"`
}

// Diff calculates the difference between oldView and newView.
// If oldView is nil, it returns a diff representing the entire newView.
func Diff(oldView, newView *View) *ViewDiff {
	if newView == nil {
		return nil
	}

	diff := &ViewDiff{SessionID: newView.SessionID}

	if oldView == nil || oldView.CurrentStepID != newView.CurrentStepID {
		diff.CurrentStepID = &newView.CurrentStepID
	}
	if oldView == nil || oldView.Status != newView.Status {
		diff.Status = &newView.Status
	}
	if oldView == nil || oldView.CanAdvance != newView.CanAdvance {
		diff.CanAdvance = &newView.CanAdvance
	}

	diff.Answers = diffAnswers(oldView, newView)

	if oldView == nil || !slices.Equal(oldView.History, newView.History) {
		diff.History = newView.History
	}

	diff.Recommendations = diffRecommendations(oldView, newView)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *View) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Answers.ToMap() {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	oldMap := old.Answers.ToMap()
	newMap := new.Answers.ToMap()
	for k, newVal := range newMap {
		oldVal, exists := oldMap[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range oldMap {
		if _, exists := newMap[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffRecommendations(old, new *View) map[string]string {
	delta := make(map[string]string)
	for name, text := range new.Recommendations {
		if old == nil || old.Recommendations[name] != text {
			delta[name] = text
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ViewDiff) IsEmpty() bool {
	return d.CurrentStepID == nil &&
		d.Status == nil &&
		d.CanAdvance == nil &&
		len(d.Answers) == 0 &&
		d.History == nil &&
		len(d.Recommendations) == 0
}
