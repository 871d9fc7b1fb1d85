package dedup

import (
	"errors"

	"github.com/sheridangray/family-event-planner/internal/event"
)

var (
	ErrNilEvent   = errors.New("nil event")
	ErrUnexpected = errors.New("unexpected failure while deduplicating")
)

// OutcomeKind classifies what happened to one input event
type OutcomeKind string

const (
	OutcomeUnique      OutcomeKind = "unique"
	OutcomeExact       OutcomeKind = "exact"
	OutcomeFuzzy       OutcomeKind = "fuzzy"
	OutcomeRefresh     OutcomeKind = "refresh"
	OutcomePassThrough OutcomeKind = "pass_through"
)

// Outcome is the per-event result of a dedup run. Err is set only for
// OutcomePassThrough. OutcomeRefresh means the input is a listing the
// canonical record already held; it is applied without counting as a
// duplicate.
type Outcome struct {
	Kind      OutcomeKind
	Input     *event.Event
	Canonical *event.Event // the record the input became or was merged into
	Score     float64
	Err       error
}

// MergeInfo describes one duplicate folded into a canonical record
type MergeInfo struct {
	PrimaryID       string       `json:"primaryId"`
	DuplicateEvent  *event.Event `json:"duplicateEvent"`
	SimilarityScore float64      `json:"similarityScore"`
	MergeType       MergeType    `json:"mergeType"`
}

// Result is the output of Deduplicator.Dedupe
type Result struct {
	UniqueEvents []*event.Event `json:"uniqueEvents"`
	MergeInfo    []MergeInfo    `json:"mergeInfo"`
	Outcomes     []Outcome      `json:"-"`
}

// Stats summarizes the deduplicator's in-memory state
type Stats struct {
	TotalUniqueEvents  int            `json:"totalUniqueEvents"`
	EventsBySource     map[string]int `json:"eventsBySource"`
	DuplicatesDetected int            `json:"duplicatesDetected"`
}
