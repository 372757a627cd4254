package stepwise_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/wizard"
)

// ExampleEngine_Open walks the built-in mood flow, skipping the optional
// secondary mood, and prints the recommendation carried by the result.
func ExampleEngine_Open() {
	eng, err := stepwise.New()
	if err != nil {
		log.Fatal(err)
	}

	done := make(chan domain.Outcome, 1)
	w, err := eng.Open(context.Background(), "mood", wizard.WithHandler(func(o domain.Outcome) {
		done <- o
	}))
	if err != nil {
		log.Fatal(err)
	}

	_ = w.SelectScalar("primary_mood", "anxious")
	_ = w.Advance()
	fmt.Println("live:", w.Recommendation())

	_ = w.Skip()
	_ = w.SelectScalar("intensity", 2)
	_ = w.Advance()
	_ = w.Advance()

	out := <-done
	fmt.Println(out.Kind)
	fmt.Println(out.Result.Recommendations["mood"])
	// Output:
	// live: Ground yourself by naming five things you can see.
	// completed
	// Ground yourself by naming five things you can see.
}
