// Package event provides the event model and the extraction, normalization and
// diffing logic for scraped Buchloe events.
//
// Raw listing fragments are turned into DateComponents, resolved to a calendar
// date, combined with an optional time range and cleaned text fields into an
// immutable Event. Events are identified by a derived Key (title, start, end,
// location) which drives both deduplication and snapshot reconciliation.
package event
