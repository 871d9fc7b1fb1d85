package event

import (
	"fmt"
	"time"
)

// Snapshot is the set of canonical events persisted at the end of a run
type Snapshot struct {
	Events    map[string]*Event `json:"events"` // keyed by Event.ID
	Order     []string          `json:"order"`  // registration order of Events
	UpdatedAt string            `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Events: make(map[string]*Event),
		Order:  make([]string, 0),
	}
}

// CreateSnapshot creates a snapshot from a list of events, preserving order
func CreateSnapshot(events []*Event, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt

	for _, evt := range events {
		if _, exists := snap.Events[evt.ID]; !exists {
			snap.Order = append(snap.Order, evt.ID)
		}
		snap.Events[evt.ID] = evt
	}

	return snap
}

// List returns the snapshot's events in registration order
func (s *Snapshot) List() []*Event {
	events := make([]*Event, 0, len(s.Events))
	seen := make(map[string]bool, len(s.Events))
	for _, id := range s.Order {
		if evt, ok := s.Events[id]; ok && !seen[id] {
			events = append(events, evt)
			seen[id] = true
		}
	}
	// Snapshots written by hand may lack an order
	for id, evt := range s.Events {
		if !seen[id] {
			events = append(events, evt)
		}
	}
	return events
}

// DiffResult contains the results of comparing a run against a snapshot
type DiffResult struct {
	NewEvents []*Event
	Changes   []*EventChange
}

// Diff compares the canonical events of this run against the previous
// snapshot. Events unknown to the snapshot are new; known events that
// picked up merged data report their changes.
func Diff(previous *Snapshot, current []*Event) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*Event, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, evt := range current {
		prev, exists := previous.Events[evt.ID]
		if !exists {
			result.NewEvents = append(result.NewEvents, evt)
			continue
		}
		result.Changes = append(result.Changes, DetectChanges(prev, evt)...)
	}

	return result
}

// EventChange represents a change detected in an event
type EventChange struct {
	EventID    string    `json:"event_id"`
	ChangeType string    `json:"change_type"` // "cost", "sources", "description", "location"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two versions of the same canonical event
func DetectChanges(previous, current *Event) []*EventChange {
	var changes []*EventChange
	now := time.Now().UTC()

	add := func(kind, oldValue, newValue string) {
		changes = append(changes, &EventChange{
			EventID:    current.ID,
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}

	if previous.Cost != current.Cost {
		add("cost", fmt.Sprintf("%.2f", previous.Cost), fmt.Sprintf("%.2f", current.Cost))
	}

	if len(previous.Sources) != len(current.Sources) {
		add("sources", fmt.Sprintf("%d", len(previous.Sources)), fmt.Sprintf("%d", len(current.Sources)))
	}

	if previous.Description != current.Description {
		add("description", previous.Description, current.Description)
	}

	if previous.Location.Address != current.Location.Address {
		add("location", previous.Location.Address, current.Location.Address)
	}

	return changes
}
