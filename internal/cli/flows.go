package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/presentation/graph"
	"github.com/aretw0/stepwise/internal/validator"
)

// ListFlows prints the flow catalog.
func ListFlows(engine *stepwise.Engine, w io.Writer) error {
	ids, err := engine.Flows()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTEPS\tTITLE")
	for _, id := range ids {
		flow, err := engine.Flow(id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t?\t%v\n", id, err)
			continue
		}
		s := flow.Summary()
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.ID, s.Steps, s.Title)
	}
	return tw.Flush()
}

// Validate checks every flow and prints warnings and errors. It fails when
// any flow has errors.
func Validate(engine *stepwise.Engine, w io.Writer) error {
	reports, err := validator.ValidateAll(engine.Loader())
	if err != nil {
		return err
	}
	for _, r := range reports {
		status := "ok"
		if !r.OK() {
			status = "FAILED"
		}
		fmt.Fprintf(w, "%-20s %s\n", r.FlowID, status)
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
	}
	return validator.Err(reports)
}

// Graph prints the Mermaid diagram of a flow.
func Graph(engine *stepwise.Engine, flowID string, w io.Writer) error {
	flow, err := engine.Flow(flowID)
	if err != nil {
		return err
	}
	fmt.Fprint(w, graph.GenerateMermaid(flow, nil))
	return nil
}
