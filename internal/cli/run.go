package cli

import (
	"context"
	"io"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/presentation/tui"
	"github.com/aretw0/stepwise/pkg/domain"
	"golang.org/x/term"
)

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	FlowID   string
	TUI      bool
	Headless bool
	Quiet    bool
}

// Run walks one wizard in the terminal: full screen with TUI, otherwise
// over line IO. The TUI needs a terminal on both ends.
func Run(ctx context.Context, app *App, opts RunOptions, in io.Reader, out io.Writer) (domain.Outcome, error) {
	if opts.TUI && isTerminal(in) && isTerminal(out) {
		o, err := tui.Run(ctx, app.Engine, opts.FlowID)
		return o, handleExecutionError(err)
	}

	interactive := !opts.Headless && isTerminal(out)
	if interactive && !opts.Quiet {
		tui.PrintBanner(out)
	}

	r := stepwise.NewRunner(in, out)
	r.Headless = opts.Headless
	if interactive {
		r.Renderer = tui.NewRenderer()
	}

	o, err := r.Run(ctx, app.Engine, opts.FlowID)
	if err == nil && o.Kind == domain.OutcomeCompleted && !opts.Quiet && o.Result != nil {
		printSystemMessage(out, "Saved result %s.", o.Result.ID)
	}
	return o, handleExecutionError(err)
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
