// Package validator checks flow catalogs before they are served.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/graph"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/recommend"
)

// Report is the outcome of validating one flow.
type Report struct {
	FlowID string
	// Errors make the flow unusable: it fails to load or compile, or no
	// path from the entry ever submits.
	Errors []string
	// Warnings flag steps no declared edge can reach. A NextFunc may still
	// reach them at runtime.
	Warnings []string
}

// OK reports whether the flow has no errors.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// ValidateFlow compiles flow and crawls it from its entry step.
func ValidateFlow(flow domain.Flow) Report {
	report := Report{FlowID: flow.ID}

	g, err := graph.New(flow)
	if err != nil {
		report.Errors = append(report.Errors, splitJoined(err)...)
		return report
	}
	if _, err := recommend.Compile(flow.Recommendations); err != nil {
		report.Errors = append(report.Errors, splitJoined(err)...)
	}

	visited := make(map[string]bool)
	queue := []string{g.Entry()}
	dynamic := false
	terminal := false

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == domain.Terminal {
			terminal = true
			continue
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		if step, ok := g.Step(current); ok && step.Resolve != nil {
			dynamic = true
		}
		for _, target := range g.Edges(current) {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	if !terminal && !dynamic {
		report.Errors = append(report.Errors, fmt.Sprintf("no path from %q reaches the end of the flow", g.Entry()))
	}
	for _, step := range g.Steps() {
		if !visited[step.ID] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("step %q is unreachable from %q", step.ID, g.Entry()))
		}
	}
	return report
}

// ValidateAll validates every flow the loader lists, in order.
func ValidateAll(loader ports.FlowLoader) ([]Report, error) {
	ids, err := loader.ListFlows()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	slices.Sort(ids)

	reports := make([]Report, 0, len(ids))
	for _, id := range ids {
		flow, err := loader.GetFlow(id)
		if err != nil {
			reports = append(reports, Report{FlowID: id, Errors: splitJoined(err)})
			continue
		}
		reports = append(reports, ValidateFlow(*flow))
	}
	return reports, nil
}

// Err summarizes reports as a single error, or nil when all flows are OK.
func Err(reports []Report) error {
	var lines []string
	for _, r := range reports {
		for _, e := range r.Errors {
			lines = append(lines, fmt.Sprintf("%s: %s", r.FlowID, e))
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(lines), strings.Join(lines, "\n- "))
}

// splitJoined gives each joined problem its own line.
func splitJoined(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
