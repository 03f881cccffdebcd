// Package notifier reports the outcome of a scrape: which events appeared
// and which disappeared since the previous snapshot.
//
// LogNotifier writes the report through the structured logger, the way the
// scheduled runs record it. DryRunNotifier prints the same report to any
// io.Writer without touching the log.
package notifier
