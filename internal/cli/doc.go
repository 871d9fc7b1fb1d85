// Package cli implements the command-line interface for family-events.
//
// The cli package provides the Cobra-based CLI. The dedupe command reads raw
// event JSON (files, stdin or the configured sources), merges duplicates
// against the canonical events kept from the previous run, and reports the
// result as text, JSON or iCalendar. The fetch command dumps what the
// configured sources currently list, and audit shows recent merges from the
// SQLite audit log.
package cli
