package stepwise

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

var keywords = map[string]domain.Event{
	"next":   domain.EventAdvance,
	"n":      domain.EventAdvance,
	"back":   domain.EventBack,
	"b":      domain.EventBack,
	"skip":   domain.EventSkip,
	"s":      domain.EventSkip,
	"reset":  domain.EventReset,
	"cancel": domain.EventCancel,
	"quit":   domain.EventCancel,
	"exit":   domain.EventCancel,
	"q":      domain.EventCancel,
}

// ParseCommands turns one line of user input into wizard commands.
//
// Accepted forms, relative to the current step:
//
//	"" | next | back | skip | reset | cancel
//	clear <field>
//	<field>=<value>   select, or toggle one member of a multi-choice field
//	<value>[,<value>] shorthand when the step has a single input; option
//	                  numbers (1-based) are accepted for choice fields
func ParseCommands(line string, step domain.Step) ([]domain.Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return []domain.Command{{Event: domain.EventAdvance}}, nil
	}
	if ev, ok := keywords[strings.ToLower(line)]; ok {
		return []domain.Command{{Event: ev}}, nil
	}
	if rest, ok := strings.CutPrefix(line, "clear "); ok {
		return []domain.Command{{Event: domain.EventClear, Field: strings.TrimSpace(rest)}}, nil
	}

	if name, value, ok := strings.Cut(line, "="); ok {
		name = strings.TrimSpace(name)
		f, known := step.Input(name)
		if !known {
			f = domain.Field{Name: name, Kind: domain.FieldSingle}
		}
		return answerCommands(f, strings.TrimSpace(value))
	}

	if len(step.Inputs) != 1 {
		return nil, fmt.Errorf("this step has %d fields; use <field>=<value>", len(step.Inputs))
	}
	return answerCommands(step.Inputs[0], line)
}

func answerCommands(f domain.Field, raw string) ([]domain.Command, error) {
	switch f.Kind {
	case domain.FieldMulti:
		var cmds []domain.Command
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			cmds = append(cmds, domain.Command{Event: domain.EventToggle, Field: f.Name, Value: optionAt(f, part)})
		}
		if len(cmds) == 0 {
			return nil, fmt.Errorf("no value for %s", f.Name)
		}
		return cmds, nil
	default:
		v, err := ParseValue(f, raw)
		if err != nil {
			return nil, err
		}
		return []domain.Command{{Event: domain.EventSelect, Field: f.Name, Value: v}}, nil
	}
}

// ParseValue converts text into the value type f expects: a number for
// scales, a bool for toggles, a member list for multi-choice fields and an
// option (by text or 1-based number) for single-choice fields.
func ParseValue(f domain.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case domain.FieldScale:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number, got %q", f.Name, raw)
		}
		if n == math.Trunc(n) {
			return int(n), nil
		}
		return n, nil
	case domain.FieldToggle:
		b, err := parseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects yes or no, got %q", f.Name, raw)
		}
		return b, nil
	case domain.FieldMulti:
		members := []string{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				members = append(members, optionAt(f, part))
			}
		}
		return members, nil
	case domain.FieldText:
		return raw, nil
	default:
		return optionAt(f, raw), nil
	}
}

// optionAt maps a 1-based option number to the option text.
func optionAt(f domain.Field, raw string) string {
	if i, err := strconv.Atoi(raw); err == nil && i >= 1 && i <= len(f.Options) {
		return f.Options[i-1]
	}
	return raw
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}
