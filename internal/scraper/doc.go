// Package scraper provides HTTP fetching and HTML parsing for the Buchloe event listing.
//
// The scraper walks the paginated listing at buchloe.de, turns every event
// article into an event.Fragment and runs it through the event normalization
// pipeline. Date blocks come in a normal and a "Noch bis" variant, times are
// free text such as "Uhrzeit: 19:00 bis 22:00 Uhr". When enabled, the full
// description is fetched from each event's detail page.
package scraper
