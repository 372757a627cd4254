package domain

import "fmt"

// Command is a transport-neutral user event, decoded by adapters from JSON
// or command-line input and dispatched to a wizard.
type Command struct {
	Event Event  `json:"event"`
	Field string `json:"field,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Validate checks that the command carries what its event needs.
func (c Command) Validate() error {
	switch c.Event {
	case EventSelect, EventToggle:
		if c.Field == "" {
			return fmt.Errorf("%s: field is required", c.Event)
		}
		if c.Value == nil {
			return fmt.Errorf("%s: value is required", c.Event)
		}
	case EventClear:
		if c.Field == "" {
			return fmt.Errorf("%s: field is required", c.Event)
		}
	case EventAdvance, EventBack, EventSkip, EventReset, EventCancel:
	default:
		return fmt.Errorf("unknown event %q", c.Event)
	}
	return nil
}
