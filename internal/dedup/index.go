package dedup

import (
	"slices"
	"time"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// Index holds the canonical records accepted during a run
type Index struct {
	canonical     []*event.Event
	byFingerprint map[string]*event.Event
	byListing     map[event.ListingRef]*event.Event
	bySource      map[string]int
	maxDateGap    time.Duration
}

// NewIndex creates an empty index. Fuzzy candidates whose dates are both
// known and further apart than maxDateGap are skipped; zero disables the check.
func NewIndex(maxDateGap time.Duration) *Index {
	return &Index{
		byFingerprint: make(map[string]*event.Event),
		byListing:     make(map[event.ListingRef]*event.Event),
		bySource:      make(map[string]int),
		maxDateGap:    maxDateGap,
	}
}

// Lookup returns the canonical record registered under fingerprint fp
func (ix *Index) Lookup(fp string) (*event.Event, bool) {
	evt, ok := ix.byFingerprint[fp]
	return evt, ok
}

// LookupListing returns the canonical record that already holds the
// producer listing evt was built from
func (ix *Index) LookupListing(evt *event.Event) (*event.Event, bool) {
	if evt.ID == "" {
		return nil, false
	}
	c, ok := ix.byListing[evt.Ref()]
	return c, ok
}

// Register adds a new canonical record. A fingerprint that is already
// registered is left untouched and Register reports false.
func (ix *Index) Register(evt *event.Event, fp string) bool {
	if _, exists := ix.byFingerprint[fp]; exists {
		return false
	}

	ix.canonical = append(ix.canonical, evt)
	ix.byFingerprint[fp] = evt
	ix.bySource[evt.Source]++
	ix.AddListings(evt)
	return true
}

// AddListings indexes the listings a canonical record holds. Listings
// already claimed by another record keep their owner.
func (ix *Index) AddListings(evt *event.Event) {
	refs := append([]event.ListingRef{evt.Ref()}, evt.MergedFrom...)
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if _, claimed := ix.byListing[ref]; !claimed {
			ix.byListing[ref] = evt
		}
	}
}

// Absorb removes duplicate from the canonical records and points its
// fingerprints and listings at primary. The caller merges the fields.
func (ix *Index) Absorb(primary, duplicate *event.Event) {
	i := slices.Index(ix.canonical, duplicate)
	if i < 0 {
		return
	}
	ix.canonical = slices.Delete(ix.canonical, i, i+1)

	for fp, c := range ix.byFingerprint {
		if c == duplicate {
			ix.byFingerprint[fp] = primary
		}
	}
	for ref, c := range ix.byListing {
		if c == duplicate {
			ix.byListing[ref] = primary
		}
	}

	if ix.bySource[duplicate.Source]--; ix.bySource[duplicate.Source] <= 0 {
		delete(ix.bySource, duplicate.Source)
	}
	ix.AddListings(primary)
}

// BestMatch scans canonical records in registration order and returns the
// highest scoring one. Ties keep the earlier record.
func (ix *Index) BestMatch(evt *event.Event, score func(a, b *event.Event) float64) (*event.Event, float64) {
	var best *event.Event
	bestScore := 0.0

	for _, candidate := range ix.canonical {
		if !ix.withinDateGap(evt, candidate) {
			continue
		}
		s := score(evt, candidate)
		if best == nil || s > bestScore {
			best = candidate
			bestScore = s
		}
	}

	return best, bestScore
}

func (ix *Index) withinDateGap(a, b *event.Event) bool {
	if ix.maxDateGap <= 0 || !a.HasDate() || !b.HasDate() {
		return true
	}
	return absDuration(a.Date.Sub(b.Date)) <= ix.maxDateGap
}

// Len returns the number of canonical records
func (ix *Index) Len() int {
	return len(ix.canonical)
}

// Events returns the canonical records in registration order
func (ix *Index) Events() []*event.Event {
	out := make([]*event.Event, len(ix.canonical))
	copy(out, ix.canonical)
	return out
}

// EventsBySource returns a copy of the per-source count of originating records
func (ix *Index) EventsBySource() map[string]int {
	out := make(map[string]int, len(ix.bySource))
	for k, v := range ix.bySource {
		out[k] = v
	}
	return out
}

// Reset drops every canonical record
func (ix *Index) Reset() {
	ix.canonical = nil
	ix.byFingerprint = make(map[string]*event.Event)
	ix.byListing = make(map[event.ListingRef]*event.Event)
	ix.bySource = make(map[string]int)
}
