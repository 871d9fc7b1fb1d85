// Package metrics exposes Prometheus collectors for dedup runs and source
// fetches. Each Registry is private so tests and batch runs do not share state.
package metrics
