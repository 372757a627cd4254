/*
Package dsl builds wizard flows in Go instead of YAML.

It is handy for tests, generated flows and small embedded wizards:

	b := dsl.New("checkin").Title("Daily check-in")

	b.Step("feel").
		Prompt("How are you feeling?").
		Single("mood", "calm", "anxious", "low").
		Require("mood").
		Branch(`mood == "low"`, "support").
		Go("note")

	b.Step("support").
		Toggle("wants_contact").
		Go("note")

	b.Step("note").
		Text("note", 280).
		Skippable().
		Terminal()

	b.Recommend("tip").
		Tier("mood", "mood").
		Rule("Breathe out slowly.", "anxious").
		Fallback("Notice how you feel.")

	loader, err := b.Build() // a ports.FlowLoader for stepwise.WithLoader
*/
package dsl
