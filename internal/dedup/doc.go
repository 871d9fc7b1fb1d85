// Package dedup identifies event records that describe the same real-world
// event and folds them into one enriched canonical record.
//
// A Deduplicator keeps its canonical records across Dedupe calls until Reset
// is called. It is not safe for concurrent use; give each batch its own
// instance or synchronize access externally.
//
// Each Dedupe call ends by folding together canonical records that merges
// made similar enough to match each other, so running Dedupe again over its
// own output merges nothing.
package dedup
