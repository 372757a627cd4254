package tui

import (
	"context"
	"fmt"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/wizard"
	tea "github.com/charmbracelet/bubbletea"
)

// Run opens flowID and drives it in the terminal until it completes or is
// cancelled. Quitting the program without an outcome counts as cancelled.
func Run(ctx context.Context, engine *stepwise.Engine, flowID string, opts ...wizard.Option) (domain.Outcome, error) {
	outcomes := make(chan domain.Outcome, 4)
	handler := func(o domain.Outcome) {
		select {
		case outcomes <- o:
		default:
		}
	}

	w, err := engine.Open(context.WithoutCancel(ctx), flowID, append(opts, wizard.WithHandler(handler))...)
	if err != nil {
		return domain.Outcome{}, err
	}
	defer w.Close()

	p := tea.NewProgram(NewModel(w, outcomes, NewRenderer()), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("tui: %w", err)
	}

	if m, ok := final.(Model); ok {
		if o, done := m.Outcome(); done {
			return o, nil
		}
	}
	return domain.Outcome{Kind: domain.OutcomeCancelled, SessionID: w.SessionID(), FlowID: flowID}, nil
}
