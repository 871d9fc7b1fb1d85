package event

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 3:04PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04PM",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/02/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
}

// ParseDate attempts to parse date text into a time.Time.
// Returns time.Time{} (zero value) if parsing fails.
func ParseDate(dateText string) time.Time {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateText); err == nil {
			return t
		}
	}

	return time.Time{}
}

// DayKey formats t as its UTC calendar day
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
