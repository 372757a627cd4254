package stepwise

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/sanitize"
	"github.com/aretw0/stepwise/pkg/wizard"
)

// Runner drives one wizard over line-oriented IO.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms step prompts before they are printed
// (markdown to ANSI, for instance) without coupling the core package to it.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner on the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run opens flowID on engine and feeds it user input until the wizard
// completes or is cancelled. EOF on the input cancels the wizard.
func (r *Runner) Run(ctx context.Context, engine *Engine, flowID string, opts ...wizard.Option) (domain.Outcome, error) {
	if r.Input == nil {
		return domain.Outcome{}, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return domain.Outcome{}, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

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

	lines := bufio.NewScanner(r.Input)
	lastRendered := ""

	if !r.Headless {
		flow, _ := engine.Flow(flowID)
		fmt.Fprintf(r.Output, "--- %s ---\n", titleOr(flow.Title, flowID))
	}

	for {
		view := w.View()

		switch view.Status {
		case domain.StatusSubmitting:
			select {
			case o := <-outcomes:
				r.reportFailure(o)
				continue
			case <-w.Done():
				continue
			case <-ctx.Done():
				_ = w.Cancel()
				return domain.Outcome{Kind: domain.OutcomeCancelled, SessionID: w.SessionID(), FlowID: flowID}, ctx.Err()
			}
		case domain.StatusCompleted, domain.StatusCancelled:
			r.drainFailures(outcomes)
			o := finalOutcome(w, view)
			r.printOutcome(o)
			return o, nil
		}

		r.drainFailures(outcomes)

		if view.CurrentStepID != lastRendered {
			r.printStep(view)
			lastRendered = view.CurrentStepID
		}

		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return domain.Outcome{}, fmt.Errorf("input error: %w", err)
			}
			_ = w.Cancel()
			continue
		}

		line, err := sanitize.Text(lines.Text())
		if err != nil {
			fmt.Fprintln(r.Output, err)
			continue
		}
		cmds, err := ParseCommands(line, *view.Step)
		if err != nil {
			fmt.Fprintln(r.Output, err)
			continue
		}
		for _, cmd := range cmds {
			if err := w.Dispatch(cmd); err != nil {
				fmt.Fprintln(r.Output, describe(err, cmd, view))
				break
			}
		}
		if v := w.View(); v.CurrentStepID == lastRendered && v.Status == domain.StatusActive && v.Recommendation != view.Recommendation {
			fmt.Fprintf(r.Output, "Suggestion: %s\n", v.Recommendation)
		}
	}
}

// drainFailures reports failed submissions delivered while the loop was not
// waiting for them.
func (r *Runner) drainFailures(outcomes <-chan domain.Outcome) {
	for {
		select {
		case o := <-outcomes:
			r.reportFailure(o)
		default:
			return
		}
	}
}

func (r *Runner) reportFailure(o domain.Outcome) {
	if o.Kind == domain.OutcomeFailed {
		fmt.Fprintf(r.Output, "Could not save: %v. Press enter to retry or type cancel.\n", o.Err)
	}
}

// finalOutcome rebuilds the outcome of a finished wizard from its state, so
// failed attempts still queued for the handler never mask the real ending.
func finalOutcome(w *wizard.Controller, v domain.View) domain.Outcome {
	o := domain.Outcome{Kind: domain.OutcomeCancelled, SessionID: v.SessionID, FlowID: v.FlowID}
	if v.Status == domain.StatusCompleted {
		o.Kind = domain.OutcomeCompleted
		o.Result, _ = w.Result()
	}
	return o
}

func (r *Runner) printStep(v domain.View) {
	step := v.Step
	if step.Title != "" {
		fmt.Fprintf(r.Output, "\n## %s\n", step.Title)
	}
	if step.Prompt != "" {
		prompt := step.Prompt
		if r.Renderer != nil {
			if rendered, err := r.Renderer(prompt); err == nil {
				prompt = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(prompt))
	}
	for _, f := range step.Inputs {
		label := titleOr(f.Label, f.Name)
		switch f.Kind {
		case domain.FieldSingle, domain.FieldMulti:
			fmt.Fprintf(r.Output, "%s (%s):\n", label, f.Kind)
			for i, opt := range f.Options {
				fmt.Fprintf(r.Output, "  %d. %s\n", i+1, opt)
			}
		case domain.FieldScale:
			fmt.Fprintf(r.Output, "%s (%v-%v)\n", label, f.Min, f.Max)
		case domain.FieldToggle:
			fmt.Fprintf(r.Output, "%s (yes/no)\n", label)
		default:
			fmt.Fprintf(r.Output, "%s\n", label)
		}
	}
	if v.CanSkip {
		fmt.Fprintln(r.Output, "(optional: type skip)")
	}
}

func (r *Runner) printOutcome(o domain.Outcome) {
	switch o.Kind {
	case domain.OutcomeCompleted:
		fmt.Fprintln(r.Output, "\nDone.")
		for _, name := range slices.Sorted(maps.Keys(o.Result.Recommendations)) {
			fmt.Fprintf(r.Output, "%s: %s\n", name, o.Result.Recommendations[name])
		}
	case domain.OutcomeCancelled:
		fmt.Fprintln(r.Output, "Cancelled.")
	}
}

// describe turns a rejected event into a message for the user.
func describe(err error, cmd domain.Command, v domain.View) string {
	var blocked *domain.ValidationBlockedError
	if errors.As(err, &blocked) {
		return fmt.Sprintf("Please answer: %s", strings.Join(blocked.Missing, ", "))
	}
	if errors.Is(err, domain.ErrInvalidAnswer) && v.Step != nil {
		if f, ok := v.Step.Input(cmd.Field); ok && len(f.Options) > 0 {
			if best, ok := Closest(domain.FormatValue(cmd.Value), f.Options); ok {
				return fmt.Sprintf("%v (did you mean %q?)", err, best)
			}
		}
	}
	return err.Error()
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}
