package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
	"github.com/pfrederiksen/buchloe-events/internal/storage"
)

// newScrapeCmd prints the scraped events as JSON without touching the
// snapshot store.
func newScrapeCmd(app *App, gf *globalFlags) *cobra.Command {
	of := &outputFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the listing and print the events as JSON",
		Long: `Scrape all listing pages and print the deduplicated events as a JSON
array, in the same format as the stored snapshots. Filter and sort flags apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.setup(gf)
			if err != nil {
				return err
			}

			cache := openCache(cfg, log)
			sc, err := newScraper(cfg, app.Fetcher, cache, log, app.metrics())
			if err != nil {
				return err
			}

			events, err := sc.FetchEvents(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching events: %w", err)
			}
			events = event.Dedupe(events)
			saveCache(cfg, cache, log)

			of.format = string(FormatJSON)
			listed, _, _, err := of.prepare(events, app.now())
			if err != nil {
				return err
			}
			log.Info("Scraped events", logger.Fields{"events": len(events), "listed": len(listed)})

			if output != "" {
				if err := storage.WriteFile(output, listed); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				log.Info("Wrote events", logger.Fields{"path": output})
				return nil
			}

			encoder := json.NewEncoder(app.stdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(listed)
		},
	}

	of.register(cmd)
	// JSON is the only output of scrape
	cmd.Flags().Lookup("format").Hidden = true
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the events to this file instead of stdout")

	return cmd
}
