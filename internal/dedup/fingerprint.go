package dedup

import (
	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/similarity"
)

// InvalidDateKey groups every event whose date is missing or unparseable
const InvalidDateKey = "invalid-date"

// Fingerprint builds the exact-match key for an event:
// normalized title | UTC calendar day | normalized address.
func Fingerprint(e *event.Event) string {
	dateKey := InvalidDateKey
	if e.HasDate() {
		dateKey = event.DayKey(e.Date)
	}

	return similarity.Normalize(e.Title) + "|" + dateKey + "|" + similarity.Normalize(e.Location.Address)
}
