package dedup

import (
	"strings"
	"time"

	"github.com/sheridangray/family-event-planner/internal/event"
)

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func newEvent(id, source, title, date, address string) *event.Event {
	evt := &event.Event{
		ID:       id,
		Source:   source,
		Title:    title,
		Location: event.Location{Address: address},
	}
	if date != "" {
		evt.Date = at(date)
	}
	return evt
}

// fixedLocation scores every pair of locations the same
type fixedLocation float64

func (f fixedLocation) CompareLocations(a, b event.Location) float64 { return float64(f) }
func (f fixedLocation) NormalizeAddress(s string) string            { return strings.ToLower(s) }
