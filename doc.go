/*
Package stepwise is a guided-wizard engine for short, structured check-ins
such as mood logging, thought records or intake questionnaires.

A wizard walks the user through ordered steps, gates each step on its
required answers, allows optional steps to be skipped and shows a live
recommendation derived from the answers through tiered rule tables. When
the last step completes the answers are packaged into a result
asynchronously; the session may still be cancelled while that happens.

# Concept

Flows are configuration. A flow declares its steps, the fields each step
writes, how steps connect (statically, by condition, or through a Go
function) and one or more rule tables. The Engine compiles a flow once
and opens any number of independent wizard.Controller sessions on it.
The host (CLI, HTTP server, MCP agent) only renders domain.View and sends
events back.

# Usage

	eng, err := stepwise.New() // built-in catalog
	if err != nil {
		log.Fatal(err)
	}

	w, err := eng.Open(ctx, "mood", wizard.WithHandler(func(o domain.Outcome) {
		if o.Kind == domain.OutcomeCompleted {
			fmt.Println(o.Result.Recommendations["mood"])
		}
	}))
	if err != nil {
		log.Fatal(err)
	}

	_ = w.SelectScalar("primary_mood", "anxious")
	_ = w.Advance()
	_ = w.Skip() // secondary mood is optional
	_ = w.SelectScalar("intensity", 2)
	_ = w.Advance()
	_ = w.Advance() // final step: submits
	<-w.Done()
*/
package stepwise
