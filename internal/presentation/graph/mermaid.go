package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// terminalID is the Mermaid node drawn for domain.Terminal. "end" is a
// Mermaid keyword, so the sentinel cannot be used as is.
const terminalID = "stepwise_submit"

// GraphOverlay contains session state to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFromView highlights the steps a session went through.
func OverlayFromView(v domain.View) *GraphOverlay {
	return &GraphOverlay{VisitedSteps: v.History, CurrentStep: v.CurrentStepID}
}

// GenerateMermaid produces a Mermaid flowchart for a flow.
// It applies semantic styling:
// - Entry: ((Circle))
// - Step with required fields: [/Parallelogram/]
// - Default: [Rectangle]
// - Submission: ([Stadium])
// Conditional edges carry their condition; skip edges are dotted.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(flow domain.Flow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := flow.Entry
	if entry == "" && len(flow.Steps) > 0 {
		entry = flow.Steps[0].ID
	}

	for _, step := range flow.Steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case step.ID == entry:
			opener, closer = "((", "))"
		case len(step.Required) > 0:
			opener, closer = "[/", "/]"
		}

		label := step.ID
		if step.Title != "" {
			label = step.Title
		}
		label = escape(label)
		if step.Resolve != nil {
			label += " <br/> (dynamic)"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		hasDefault := false
		for _, t := range step.Transitions {
			safeTo := targetID(t.To)
			if t.Condition == "" {
				hasDefault = true
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, safeTo)
				continue
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(t.Condition), safeTo)
		}
		if !hasDefault {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, targetID(step.Next))
		}
		if step.SkipTo != "" {
			fmt.Fprintf(&sb, "    %s -. \"skip\" .-> %s\n", safeID, targetID(step.SkipTo))
		}
	}
	fmt.Fprintf(&sb, "    %s([\"submit\"])\n", terminalID)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		var seen []string
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || id == overlay.CurrentStep || slices.Contains(seen, safeID) {
				continue
			}
			seen = append(seen, safeID)
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}

		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func targetID(target string) string {
	if target == "" || target == domain.Terminal {
		return terminalID
	}
	return sanitizeMermaidID(target)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
