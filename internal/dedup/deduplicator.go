package dedup

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/location"
	"github.com/sheridangray/family-event-planner/internal/logger"
)

const (
	// DefaultThreshold is the minimum composite score (inclusive) for a fuzzy match
	DefaultThreshold = 0.75

	// DefaultMaxDateGap bounds the fuzzy scan to candidates on nearby dates
	DefaultMaxDateGap = 24 * time.Hour

	DefaultAuditTimeout = 10 * time.Second
)

// Deduplicator drives the per-event decision loop
type Deduplicator struct {
	threshold    float64
	maxDateGap   time.Duration
	similarity   func(a, b *event.Event) float64
	audit        AuditSink
	auditTimeout time.Duration
	log          *logger.Logger
	recorder     Recorder
	now          func() time.Time

	index      *Index
	duplicates int
	pending    sync.WaitGroup
}

// Option configures a Deduplicator
type Option func(*Deduplicator)

// WithThreshold sets the fuzzy match threshold
func WithThreshold(threshold float64) Option {
	return func(d *Deduplicator) {
		d.threshold = threshold
	}
}

// WithScorer replaces the default composite scorer
func WithScorer(s *Scorer) Option {
	return func(d *Deduplicator) {
		d.similarity = s.Similarity
	}
}

// WithSimilarityFunc replaces the scorer with an arbitrary function
func WithSimilarityFunc(fn func(a, b *event.Event) float64) Option {
	return func(d *Deduplicator) {
		d.similarity = fn
	}
}

// WithAuditSink sends a record of every merge to sink
func WithAuditSink(sink AuditSink) Option {
	return func(d *Deduplicator) {
		d.audit = sink
	}
}

// WithAuditTimeout bounds each audit write
func WithAuditTimeout(timeout time.Duration) Option {
	return func(d *Deduplicator) {
		d.auditTimeout = timeout
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(d *Deduplicator) {
		if l != nil {
			d.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(d *Deduplicator) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithClock overrides the time source used for lastMerged
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) {
		d.now = now
	}
}

// WithMaxDateGap sets how far apart two dated events may be and still be
// compared. Zero compares every pair.
func WithMaxDateGap(gap time.Duration) Option {
	return func(d *Deduplicator) {
		d.maxDateGap = gap
	}
}

// New creates a Deduplicator with the default scorer and threshold
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		threshold:    DefaultThreshold,
		maxDateGap:   DefaultMaxDateGap,
		similarity:   NewScorer(location.New(), DefaultWeights, DefaultBoost).Similarity,
		auditTimeout: DefaultAuditTimeout,
		log:          logger.Default(),
		recorder:     nopRecorder{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.index = NewIndex(d.maxDateGap)
	return d
}

// Dedupe processes events in order. The first event seen for a real-world
// event becomes its canonical record; later matches are merged into it.
// Input events are never modified.
//
// UniqueEvents holds, in first-seen order, the canonical records created or
// enriched by this call plus every event that could not be processed.
func (d *Deduplicator) Dedupe(ctx context.Context, events []*event.Event) *Result {
	result := &Result{
		UniqueEvents: make([]*event.Event, 0, len(events)),
		MergeInfo:    []MergeInfo{},
		Outcomes:     make([]Outcome, 0, len(events)),
	}
	touched := make(map[*event.Event]bool)
	passThrough := 0

	for _, evt := range events {
		out := d.process(ctx, evt)
		result.Outcomes = append(result.Outcomes, out)
		d.recorder.ObserveOutcome(out.Kind)

		if out.Kind == OutcomePassThrough {
			passThrough++
			fields := logger.Fields{}
			if evt != nil {
				fields["event_id"] = evt.ID
				fields["source"] = evt.Source
				result.UniqueEvents = append(result.UniqueEvents, evt)
			}
			d.log.Error("Event passed through unmerged", fields, out.Err)
			continue
		}

		// Records seeded or created by an earlier call appear once they are touched
		if !touched[out.Canonical] {
			touched[out.Canonical] = true
			result.UniqueEvents = append(result.UniqueEvents, out.Canonical)
		}
		if out.Kind == OutcomeExact || out.Kind == OutcomeFuzzy {
			result.MergeInfo = append(result.MergeInfo, MergeInfo{
				PrimaryID:       out.Canonical.ID,
				DuplicateEvent:  evt,
				SimilarityScore: out.Score,
				MergeType:       MergeType(out.Kind),
			})
		}
	}

	consolidated := d.consolidate(ctx, touched, result)

	d.recorder.SetCanonical(d.index.Len())

	d.log.Info("Deduplication complete", logger.Fields{
		"input":        len(events),
		"unique":       len(result.UniqueEvents) - passThrough,
		"merged":       len(result.MergeInfo),
		"consolidated": consolidated,
		"pass_through": passThrough,
		"canonical":    d.index.Len(),
	})

	return result
}

func (d *Deduplicator) process(ctx context.Context, evt *event.Event) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Kind: OutcomePassThrough, Input: evt, Err: fmt.Errorf("%w: %v", ErrUnexpected, r)}
		}
	}()

	if evt == nil {
		return Outcome{Kind: OutcomePassThrough, Err: ErrNilEvent}
	}

	if holder, ok := d.index.LookupListing(evt); ok {
		Refresh(holder, evt)
		d.log.Debug("Refreshed known listing", logger.Fields{
			"canonical_id": holder.ID,
			"event_id":     evt.ID,
			"source":       evt.Source,
		})
		return Outcome{Kind: OutcomeRefresh, Input: evt, Canonical: holder, Score: 1.0}
	}

	fp := Fingerprint(evt)
	if primary, ok := d.index.Lookup(fp); ok {
		d.merge(ctx, primary, evt, 1.0, MergeExact)
		return Outcome{Kind: OutcomeExact, Input: evt, Canonical: primary, Score: 1.0}
	}

	if candidate, score := d.index.BestMatch(evt, d.similarity); candidate != nil && score >= d.threshold {
		d.merge(ctx, candidate, evt, score, MergeFuzzy)
		return Outcome{Kind: OutcomeFuzzy, Input: evt, Canonical: candidate, Score: score}
	}

	canonical := newCanonical(evt)
	d.index.Register(canonical, fp)
	return Outcome{Kind: OutcomeUnique, Input: evt, Canonical: canonical, Score: 0}
}

func newCanonical(evt *event.Event) *event.Event {
	c := evt.Clone()
	if c.MergeCount < 1 {
		c.MergeCount = 1
	}
	return c
}

func (d *Deduplicator) merge(ctx context.Context, primary, duplicate *event.Event, score float64, mergeType MergeType) {
	Merge(primary, duplicate, d.now())
	d.index.AddListings(primary)
	d.duplicates++
	d.recorder.ObserveMerge(mergeType, score)

	d.log.Debug("Merged duplicate event", logger.Fields{
		"primary_id":   primary.ID,
		"duplicate_id": duplicate.ID,
		"source":       duplicate.Source,
		"score":        score,
		"merge_type":   string(mergeType),
	})

	d.recordAudit(ctx, primary.ID, duplicate.Clone(), score, mergeType)
}

// consolidate folds together canonical records that match each other after
// this call's merges enriched them. At least one record of every compared
// pair must have been touched by this call. The later-registered record is
// merged into the earlier one and leaves the index. Returns the number of
// records folded.
func (d *Deduplicator) consolidate(ctx context.Context, touched map[*event.Event]bool, result *Result) int {
	folded := 0
	for {
		primary, duplicate, score, mergeType, ok := d.nextCollision(touched)
		if !ok {
			return folded
		}

		Merge(primary, duplicate, d.now())
		d.index.Absorb(primary, duplicate)
		d.duplicates++
		folded++
		d.recorder.ObserveMerge(mergeType, score)

		d.log.Debug("Folded matching canonical events", logger.Fields{
			"primary_id":   primary.ID,
			"duplicate_id": duplicate.ID,
			"score":        score,
			"merge_type":   string(mergeType),
		})

		result.MergeInfo = append(result.MergeInfo, MergeInfo{
			PrimaryID:       primary.ID,
			DuplicateEvent:  duplicate,
			SimilarityScore: score,
			MergeType:       mergeType,
		})
		for i := range result.Outcomes {
			if result.Outcomes[i].Canonical == duplicate {
				result.Outcomes[i].Canonical = primary
			}
		}
		result.UniqueEvents = replaceFolded(result.UniqueEvents, primary, duplicate, touched[primary])

		touched[primary] = true
		delete(touched, duplicate)

		d.recordAudit(ctx, primary.ID, duplicate.Clone(), score, mergeType)
	}
}

// nextCollision finds the first canonical record, in registration order,
// that an earlier record matches. The policy mirrors process: an equal
// fingerprint wins, otherwise the best score at or above the threshold.
func (d *Deduplicator) nextCollision(touched map[*event.Event]bool) (primary, duplicate *event.Event, score float64, mergeType MergeType, ok bool) {
	canonical := d.index.Events()
	fps := make([]string, len(canonical))
	for i, c := range canonical {
		fps[i] = Fingerprint(c)
	}

	for j := 1; j < len(canonical); j++ {
		later := canonical[j]

		for i := 0; i < j; i++ {
			if (touched[canonical[i]] || touched[later]) && fps[i] == fps[j] {
				return canonical[i], later, 1.0, MergeExact, true
			}
		}

		var best *event.Event
		bestScore := 0.0
		for i := 0; i < j; i++ {
			earlier := canonical[i]
			if !touched[earlier] && !touched[later] {
				continue
			}
			if !d.index.withinDateGap(later, earlier) {
				continue
			}
			s, scored := d.safeSimilarity(later, earlier)
			if scored && (best == nil || s > bestScore) {
				best, bestScore = earlier, s
			}
		}
		if best != nil && bestScore >= d.threshold {
			return best, later, bestScore, MergeFuzzy, true
		}
	}

	return nil, nil, 0, "", false
}

func (d *Deduplicator) safeSimilarity(a, b *event.Event) (score float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("Similarity failed while consolidating", logger.Fields{
				"event_id":     a.ID,
				"candidate_id": b.ID,
			}, fmt.Errorf("%w: %v", ErrUnexpected, r))
			score, ok = 0, false
		}
	}()
	return d.similarity(a, b), true
}

// replaceFolded drops duplicate from the output. When primary is not in the
// output yet it takes the duplicate's place.
func replaceFolded(out []*event.Event, primary, duplicate *event.Event, primaryListed bool) []*event.Event {
	i := slices.Index(out, duplicate)
	if i < 0 {
		if !primaryListed {
			out = append(out, primary)
		}
		return out
	}
	if primaryListed {
		return slices.Delete(out, i, i+1)
	}
	out[i] = primary
	return out
}

// recordAudit writes the merge record in the background. The write outlives
// cancellation of ctx but is bounded by the audit timeout.
func (d *Deduplicator) recordAudit(ctx context.Context, primaryID string, duplicate *event.Event, score float64, mergeType MergeType) {
	if d.audit == nil {
		return
	}

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Warn("Merge audit panicked", logger.Fields{"primary_id": primaryID}, fmt.Errorf("%v", r))
			}
		}()

		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.auditTimeout)
		defer cancel()

		mergeID, err := d.audit.RecordEventMerge(auditCtx, primaryID, duplicate, score, mergeType)
		if err != nil {
			d.log.Warn("Failed to record event merge", logger.Fields{
				"primary_id":   primaryID,
				"duplicate_id": duplicate.ID,
			}, err)
			return
		}
		if mergeID == "" {
			d.log.Debug("Merge audit skipped, primary unknown to store", logger.Fields{"primary_id": primaryID})
		}
	}()
}

// Wait blocks until every in-flight audit write has finished. Call it before
// closing the audit sink.
func (d *Deduplicator) Wait() {
	d.pending.Wait()
}

// Seed registers canonical records kept from a previous run so that new
// events merge into them. A listing a seeded record already holds is
// refreshed rather than counted again. Seeded records are not emitted by
// Dedupe until a later event touches them. Returns the number registered.
func (d *Deduplicator) Seed(events []*event.Event) int {
	n := 0
	for _, evt := range events {
		if evt == nil {
			continue
		}
		if d.index.Register(newCanonical(evt), Fingerprint(evt)) {
			n++
		}
	}
	d.recorder.SetCanonical(d.index.Len())
	return n
}

// Stats reports the current in-memory state
func (d *Deduplicator) Stats() Stats {
	return Stats{
		TotalUniqueEvents:  d.index.Len(),
		EventsBySource:     d.index.EventsBySource(),
		DuplicatesDetected: d.duplicates,
	}
}

// Events returns every canonical record in registration order
func (d *Deduplicator) Events() []*event.Event {
	return d.index.Events()
}

// Reset clears every canonical record and counter. Pending audit writes are
// not cancelled.
func (d *Deduplicator) Reset() {
	d.index.Reset()
	d.duplicates = 0
	d.recorder.SetCanonical(0)
}
