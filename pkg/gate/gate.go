// Package gate decides whether a step may be left forward.
//
// The gate is a pure function of a step's required fields and the current
// answers. A required field is met when it is present and, for set-valued
// fields, non-empty.
package gate

import "github.com/aretw0/stepwise/pkg/domain"

// CanAdvance reports whether every required field of step is answered.
func CanAdvance(step domain.Step, answers domain.Answers) bool {
	for _, field := range step.Required {
		if !answers.Satisfies(field) {
			return false
		}
	}
	return true
}

// Missing lists the unanswered required fields in declaration order.
func Missing(step domain.Step, answers domain.Answers) []string {
	var missing []string
	for _, field := range step.Required {
		if !answers.Satisfies(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Check returns a *domain.ValidationBlockedError when the step is blocked.
func Check(step domain.Step, answers domain.Answers) error {
	missing := Missing(step, answers)
	if len(missing) == 0 {
		return nil
	}
	return &domain.ValidationBlockedError{
		StepID:  step.ID,
		Missing: missing,
	}
}
