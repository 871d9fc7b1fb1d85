// Package event provides the family event record and the tools around it.
//
// Raw records from any producer are decoded leniently and resolved into
// Events. Canonical events are persisted between runs as a Snapshot, and
// Diff reports which events are new and which picked up merged data since
// the previous run. Events that arrive without an ID get a deterministic
// SHA1-based one generated from source, title and date text.
package event
