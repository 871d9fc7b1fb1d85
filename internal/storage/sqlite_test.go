package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sheridangray/family-event-planner/internal/dedup"
	"github.com/sheridangray/family-event-planner/internal/event"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "family-events.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveEvents(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.SaveEvents(ctx, testEvents()); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}

	// Saving again updates in place
	updated := testEvents()
	updated[1].Cost = 0
	if err := db.SaveEvents(ctx, updated); err != nil {
		t.Fatalf("SaveEvents failed: %v", err)
	}

	n, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}

	got, err := db.GetEvent(ctx, "event-456")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Cost != 0 {
		t.Errorf("expected updated cost 0, got %+v", got)
	}

	missing, err := db.GetEvent(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown event, got %v, %v", missing, err)
	}
}

func TestRecordEventMerge(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.SaveEvents(ctx, testEvents()); err != nil {
		t.Fatal(err)
	}

	dup := &event.Event{ID: "dup-1", Source: "funcheapsf", Title: "storytime at sf library"}

	id, err := db.RecordEventMerge(ctx, "event-123", dup, 1.0, dedup.MergeExact)
	if err != nil {
		t.Fatalf("RecordEventMerge failed: %v", err)
	}
	if id == "" {
		t.Error("expected a merge id for a known primary")
	}

	id, err = db.RecordEventMerge(ctx, "unknown-primary", dup, 0.8, dedup.MergeFuzzy)
	if err != nil {
		t.Fatalf("expected no error for unknown primary, got %v", err)
	}
	if id != "" {
		t.Errorf("expected empty merge id for unknown primary, got %q", id)
	}
}

func TestRecentMerges(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.SaveEvents(ctx, testEvents()); err != nil {
		t.Fatal(err)
	}

	clock := time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	dups := []*event.Event{
		{ID: "d1", Source: "funcheapsf", Title: "Storytime"},
		{ID: "d2", Source: "eventbrite", Title: "Toddler Music"},
		{ID: "d3", Source: "kidsoutandabout", Title: "Storytime SF"},
	}
	primaries := []string{"event-123", "event-456", "event-123"}
	for i, d := range dups {
		if _, err := db.RecordEventMerge(ctx, primaries[i], d, 0.8, dedup.MergeFuzzy); err != nil {
			t.Fatal(err)
		}
	}

	records, err := db.RecentMerges(ctx, 2)
	if err != nil {
		t.Fatalf("RecentMerges failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].DuplicateID != "d3" || records[1].DuplicateID != "d2" {
		t.Errorf("expected newest first, got %s, %s", records[0].DuplicateID, records[1].DuplicateID)
	}
	if records[0].PrimaryTitle != "Storytime at SF Library" {
		t.Errorf("expected primary title to be joined, got %q", records[0].PrimaryTitle)
	}
	if records[0].Duplicate == nil || records[0].Duplicate.Source != "kidsoutandabout" {
		t.Errorf("expected duplicate payload to decode, got %+v", records[0].Duplicate)
	}
	if records[0].MergeType != dedup.MergeFuzzy {
		t.Errorf("expected fuzzy merge type, got %s", records[0].MergeType)
	}
}

func TestAuditSinkWithDeduplicator(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	events := []*event.Event{
		{ID: "a", Source: "sf-library", Title: "Storytime", Date: time.Date(2025, 8, 17, 10, 0, 0, 0, time.UTC)},
		{ID: "b", Source: "funcheapsf", Title: "storytime!", Date: time.Date(2025, 8, 17, 10, 5, 0, 0, time.UTC)},
	}
	if err := db.SaveEvents(ctx, events); err != nil {
		t.Fatal(err)
	}

	d := dedup.New(dedup.WithAuditSink(db))
	result := d.Dedupe(ctx, events)
	d.Wait()

	if len(result.MergeInfo) != 1 {
		t.Fatalf("expected 1 merge, got %d", len(result.MergeInfo))
	}

	records, err := db.RecentMerges(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].PrimaryID != "a" || records[0].MergeType != dedup.MergeExact {
		t.Errorf("expected one exact audit row for a, got %+v", records)
	}
}
