/*
Package domain contains the core models shared by every stepwise component.

It defines the static configuration of a wizard (Flow, Step, Field, RuleTable),
the answer snapshot collected while a user walks through it (Answers, Set),
and the values that cross the boundary with a host (View, Submission,
WizardResult, Outcome). The package is pure: no I/O, no persistence and no
goroutines live here.

# Key Entities

  - Flow: ordered steps plus the recommendation tables read at the end.
  - Step: a page of the wizard, the fields it writes and where it leads.
  - Answers: immutable snapshot of field name to scalar or set value.
  - RuleTable: tiered lookup from answer tuples to a recommendation string.
  - View: read-only projection a presentation layer renders.
  - Outcome: completed, cancelled or failed notice delivered exactly once.
*/
package domain
