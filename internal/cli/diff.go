package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/storage"
)

// newDiffCmd compares two snapshot files
func newDiffCmd(app *App, gf *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two snapshot files",
		Long: `Compare two snapshot files by event identity (title, start, end and
location) and list the events added in NEW and removed since OLD.
Exits with code 2 when the snapshots differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := ParseOutputFormat(format)
			if err != nil {
				return err
			}

			previous, err := storage.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}
			current, err := storage.LoadFile(args[1])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[1], err)
			}

			diff := event.Reconcile(event.Dedupe(current), event.Dedupe(previous))
			result := &OutputResult{
				CheckedAt:     app.now().UTC(),
				NewEvents:     diff.Added,
				RemovedEvents: diff.Removed,
				EventCount:    len(diff.Added),
				TotalEvents:   len(current),
			}
			if err := WriteOutput(app.stdout(), result, outFormat, gf.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if diff.Changed() {
				app.exitCode = ExitNewEvents
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}
