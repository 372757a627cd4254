package tui

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/wizard"
	tea "github.com/charmbracelet/bubbletea"
)

type outcomeMsg domain.Outcome

// Model is a full-screen bubbletea front end for one wizard.
//
// Keys: up/down pick an option, tab moves between fields, space selects or
// toggles, typing fills text and scale fields, enter commits typed input or
// advances, esc goes back, ctrl+s skips, ctrl+r resets, ctrl+c cancels.
type Model struct {
	w        *wizard.Controller
	outcomes <-chan domain.Outcome
	render   func(string) (string, error)

	view    domain.View
	field   int
	option  int
	input   string
	status  string
	failed  bool
	outcome *domain.Outcome

	width int
}

// NewModel wraps a started wizard. outcomes must receive the wizard's
// completion handler output.
func NewModel(w *wizard.Controller, outcomes <-chan domain.Outcome, render func(string) (string, error)) Model {
	return Model{w: w, outcomes: outcomes, render: render, view: w.View()}
}

// Outcome returns how the wizard ended, once it has.
func (m Model) Outcome() (domain.Outcome, bool) {
	if m.outcome == nil {
		return domain.Outcome{}, false
	}
	return *m.outcome, true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func waitOutcome(ch <-chan domain.Outcome) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case outcomeMsg:
		return m.handleOutcome(domain.Outcome(msg))
	case tea.KeyMsg:
		if m.outcome != nil {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleOutcome(o domain.Outcome) (tea.Model, tea.Cmd) {
	m.view = m.w.View()
	switch m.view.Status {
	case domain.StatusCompleted, domain.StatusCancelled:
		final := domain.Outcome{Kind: domain.OutcomeCancelled, SessionID: m.view.SessionID, FlowID: m.view.FlowID}
		if m.view.Status == domain.StatusCompleted {
			final.Kind = domain.OutcomeCompleted
			final.Result, _ = m.w.Result()
		}
		m.outcome = &final
		return m, tea.Quit
	case domain.StatusSubmitting:
		// A failure from an earlier attempt; the current one is still running.
		return m, waitOutcome(m.outcomes)
	}
	if o.Kind == domain.OutcomeFailed {
		m.setError(fmt.Sprintf("Could not save: %v. Press enter to retry.", o.Err))
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if err := m.w.Cancel(); err != nil {
			return m, tea.Quit
		}
		return m, waitOutcome(m.outcomes)
	}
	if m.view.Status == domain.StatusSubmitting {
		return m, nil
	}

	field, hasField := m.currentField()

	switch msg.String() {
	case "up":
		if m.option > 0 {
			m.option--
		}
		return m, nil
	case "down":
		if hasField && m.option < len(field.Options)-1 {
			m.option++
		}
		return m, nil
	case "tab":
		m.focus(m.field + 1)
		return m, nil
	case "shift+tab":
		m.focus(m.field - 1)
		return m, nil
	case "esc":
		return m.apply(m.w.Back())
	case "ctrl+s":
		return m.apply(m.w.Skip())
	case "ctrl+r":
		return m.apply(m.w.Reset())
	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case "enter":
		if hasField && m.input != "" && typed(field) {
			return m.commitInput(field)
		}
		return m.apply(m.w.Advance())
	case " ":
		if hasField && !typed(field) {
			return m.choose(field)
		}
	}

	if hasField && typed(field) {
		switch msg.Type {
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		case tea.KeySpace:
			m.input += " "
		}
	}
	return m, nil
}

// typed fields take free keyboard input instead of option navigation.
func typed(f domain.Field) bool {
	return f.Kind == domain.FieldText || f.Kind == domain.FieldScale
}

func (m Model) choose(f domain.Field) (tea.Model, tea.Cmd) {
	switch f.Kind {
	case domain.FieldToggle:
		on := m.view.Answers.Text(f.Name) == "true"
		return m.apply(m.w.SelectScalar(f.Name, !on))
	case domain.FieldMulti:
		if m.option < len(f.Options) {
			return m.apply(m.w.ToggleSetMember(f.Name, f.Options[m.option]))
		}
	default:
		if m.option < len(f.Options) {
			return m.apply(m.w.SelectScalar(f.Name, f.Options[m.option]))
		}
	}
	return m, nil
}

func (m Model) commitInput(f domain.Field) (tea.Model, tea.Cmd) {
	v, err := stepwise.ParseValue(f, m.input)
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.input = ""
	return m.apply(m.w.SelectScalar(f.Name, v))
}

// apply refreshes the view after an event and starts waiting for the
// outcome when the wizard left the active state.
func (m Model) apply(err error) (tea.Model, tea.Cmd) {
	prevStep := m.view.CurrentStepID
	m.view = m.w.View()
	if m.view.CurrentStepID != prevStep {
		m.field, m.option, m.input = 0, 0, ""
	}

	if err != nil {
		var blocked *domain.ValidationBlockedError
		if errors.As(err, &blocked) {
			m.setError("Please answer: " + strings.Join(blocked.Missing, ", "))
		} else {
			m.setError(err.Error())
		}
		return m, nil
	}
	m.status, m.failed = "", false

	if m.view.Status != domain.StatusActive {
		m.status = "Saving..."
		return m, waitOutcome(m.outcomes)
	}
	return m, nil
}

func (m *Model) setError(msg string) {
	m.status = msg
	m.failed = true
}

func (m *Model) focus(i int) {
	if m.view.Step == nil || len(m.view.Step.Inputs) == 0 {
		return
	}
	n := len(m.view.Step.Inputs)
	m.field = (i%n + n) % n
	m.option = 0
	m.input = ""
}

func (m Model) currentField() (domain.Field, bool) {
	if m.view.Step == nil || m.field >= len(m.view.Step.Inputs) {
		return domain.Field{}, false
	}
	return m.view.Step.Inputs[m.field], true
}

func (m Model) View() string {
	if m.outcome != nil {
		return m.outcomeView()
	}
	step := m.view.Step
	if step == nil {
		return ""
	}

	var b strings.Builder
	title := step.Title
	if title == "" {
		title = step.ID
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString(progressStyle.Render(fmt.Sprintf("  step %d", len(m.view.History))))
	b.WriteString("\n")

	if step.Prompt != "" {
		prompt := step.Prompt
		if m.render != nil {
			if rendered, err := m.render(prompt); err == nil {
				prompt = strings.TrimSpace(rendered)
			}
		}
		b.WriteString(prompt + "\n")
	}
	b.WriteString("\n")

	for i, f := range step.Inputs {
		b.WriteString(m.fieldView(i, f))
		b.WriteString("\n")
	}

	if m.view.Recommendation != "" {
		b.WriteString(suggestStyle.Render("Suggestion: "+m.view.Recommendation) + "\n")
	}
	if m.view.LastError != "" && !m.failed {
		b.WriteString(errorStyle.Render(m.view.LastError) + "\n")
	}
	if m.status != "" {
		style := okStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status) + "\n")
	}

	help := "enter next • esc back • ctrl+c cancel"
	if m.view.CanSkip {
		help = "enter next • ctrl+s skip • esc back • ctrl+c cancel"
	}
	b.WriteString(mutedStyle.Render(help))

	return frameStyle.Render(b.String()) + "\n"
}

func (m Model) fieldView(i int, f domain.Field) string {
	focused := i == m.field
	label := f.Label
	if label == "" {
		label = f.Name
	}
	if focused {
		label = focusStyle.Render("› " + label)
	} else {
		label = labelStyle.Render("  " + label)
	}

	var b strings.Builder
	b.WriteString(label + "\n")

	answers := m.view.Answers
	switch f.Kind {
	case domain.FieldSingle, domain.FieldMulti:
		chosen := answers.Set(f.Name)
		for j, opt := range f.Options {
			mark := "( )"
			if f.Kind == domain.FieldMulti {
				mark = "[ ]"
			}
			if chosen.Contains(opt) {
				mark = strings.NewReplacer(" ", "x").Replace(mark)
			}
			line := fmt.Sprintf("    %s %s", mark, opt)
			if focused && j == m.option {
				line = focusStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	case domain.FieldToggle:
		state := "no"
		if answers.Text(f.Name) == "true" {
			state = "yes"
		}
		b.WriteString(fmt.Sprintf("    %s (space to flip)\n", state))
	default:
		current := answers.Text(f.Name)
		if focused && m.input != "" {
			current = m.input + "▏"
		}
		hint := ""
		if f.Kind == domain.FieldScale {
			hint = mutedStyle.Render(fmt.Sprintf(" (%v-%v)", f.Min, f.Max))
		}
		b.WriteString(fmt.Sprintf("    %s%s\n", current, hint))
	}
	return b.String()
}

func (m Model) outcomeView() string {
	o := m.outcome
	if o.Kind != domain.OutcomeCompleted || o.Result == nil {
		return mutedStyle.Render("Cancelled.") + "\n"
	}
	var b strings.Builder
	b.WriteString(okStyle.Render("Done.") + "\n")
	for _, name := range slices.Sorted(maps.Keys(o.Result.Recommendations)) {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(name+":"), o.Result.Recommendations[name]))
	}
	return b.String()
}
