// Package storage provides persistence for event snapshots.
//
// The default FileStore writes each snapshot as a JSON array to
// processed_events_YYYYMMDD_HHMMSS.json and treats the file with the newest
// embedded timestamp as the latest snapshot. BoltStore keeps the same
// snapshots in a single bbolt database. Writes are last-write-wins.
package storage
