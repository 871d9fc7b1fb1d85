package dedup

import (
	"context"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// MergeType tells how a duplicate was matched to its canonical record
type MergeType string

const (
	MergeExact MergeType = "exact"
	MergeFuzzy MergeType = "fuzzy"
)

// AuditSink persists a record of each merge. An empty merge id with a nil
// error means the store no longer knows the primary event; that is not a
// failure.
type AuditSink interface {
	RecordEventMerge(ctx context.Context, primaryID string, duplicate *event.Event, score float64, mergeType MergeType) (string, error)
}

// Recorder receives per-run measurements, typically for metrics export
type Recorder interface {
	ObserveOutcome(kind OutcomeKind)
	ObserveMerge(mergeType MergeType, score float64)
	SetCanonical(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOutcome(OutcomeKind)      {}
func (nopRecorder) ObserveMerge(MergeType, float64) {}
func (nopRecorder) SetCanonical(int)                {}
