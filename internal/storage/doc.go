// Package storage persists canonical events between runs.
//
// Storage keeps a JSON snapshot of the canonical events from the last run
// (snapshot.json under the data directory), which the CLI re-seeds into the
// deduplicator so events seen before keep their identity. DB is a SQLite
// store holding the latest copy of every event and an audit row for each
// merge; it implements dedup.AuditSink.
//
// The default data directory is ~/.family-events/.
package storage
