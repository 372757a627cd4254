package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/stepwise/pkg/ports"
)

// ListResults prints stored results, one per line.
func ListResults(ctx context.Context, store ports.ResultStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing results: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No stored results found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFLOW\tCAPTURED")
	for _, id := range ids {
		r, err := store.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t?\t%v\n", id, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.FlowID, r.CapturedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// ShowResult prints one result as indented JSON.
func ShowResult(ctx context.Context, store ports.ResultStore, id string, w io.Writer) error {
	r, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading result '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling result: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveResults deletes every listed result, reporting each one.
func RemoveResults(ctx context.Context, store ports.ResultStore, ids []string, w io.Writer) error {
	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "Removed result '%s'\n", id)
	}
	return errors.Join(errs...)
}
