// Package cli implements the command-line interface for buchloe-events.
//
// The root command runs the scrape pipeline once: it fetches the listing,
// deduplicates the events, reconciles them against the latest snapshot,
// saves the new snapshot, writes the archival and public iCalendar feeds and
// reports added and removed events (text or JSON, sortable and filterable).
// It exits with code 2 when events changed. The scrape, diff and serve
// subcommands expose the individual steps and a long-running feed server.
package cli
