package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/sheridangray/family-event-planner/internal/event"
)

// defaultDuration is used for timed events; sources rarely publish an end time
const defaultDuration = 2 * time.Hour

// maxLineOctets is the RFC 5545 content line limit before folding
const maxLineOctets = 75

// GenerateICS renders one VCALENDAR with a VEVENT per dated event. Events
// without a usable date cannot be placed and are left out.
func GenerateICS(events []*event.Event, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Family Events//family-events//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, evt := range events {
		if evt == nil || !evt.HasDate() {
			continue
		}
		writeEvent(&ics, evt, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, now time.Time) {
	line := func(format string, args ...interface{}) {
		ics.WriteString(foldLine(fmt.Sprintf(format, args...)))
		ics.WriteString("\r\n")
	}

	line("BEGIN:VEVENT")
	line("UID:%s@family-events", evt.ID)
	line("DTSTAMP:%s", formatICSTime(now))

	// A midnight UTC timestamp means the source only gave a day
	start := evt.Date.UTC()
	if start.Hour() == 0 && start.Minute() == 0 && start.Second() == 0 {
		line("DTSTART;VALUE=DATE:%s", start.Format("20060102"))
		line("DTEND;VALUE=DATE:%s", start.AddDate(0, 0, 1).Format("20060102"))
	} else {
		line("DTSTART:%s", formatICSTime(start))
		line("DTEND:%s", formatICSTime(start.Add(defaultDuration)))
	}

	line("SUMMARY:%s", escapeICS(evt.Title))

	if desc := description(evt); desc != "" {
		line("DESCRIPTION:%s", escapeICS(desc))
	}

	if loc := locationText(evt.Location); loc != "" {
		line("LOCATION:%s", escapeICS(loc))
	}

	if evt.RegistrationURL != "" {
		line("URL:%s", evt.RegistrationURL)
	}

	sources := evt.Sources
	if len(sources) == 0 && evt.Source != "" {
		sources = []string{evt.Source}
	}
	if len(sources) > 0 {
		escaped := make([]string, len(sources))
		for i, src := range sources {
			escaped[i] = escapeICS(src)
		}
		line("CATEGORIES:%s", strings.Join(escaped, ","))
	}

	line("STATUS:CONFIRMED")
	line("SEQUENCE:%d", evt.MergeCount)
	line("TRANSP:OPAQUE")
	line("END:VEVENT")
}

func description(evt *event.Event) string {
	var parts []string
	if evt.Description != "" {
		parts = append(parts, evt.Description)
	}
	if evt.Cost > 0 {
		parts = append(parts, fmt.Sprintf("Cost: $%.2f", evt.Cost))
	} else {
		parts = append(parts, "Cost: Free")
	}
	if evt.AgeRange != nil {
		parts = append(parts, fmt.Sprintf("Ages: %g-%g", evt.AgeRange.Min, evt.AgeRange.Max))
	}
	for _, u := range evt.AlternateURLs {
		parts = append(parts, "Also at: "+u)
	}
	return strings.Join(parts, "\n")
}

func locationText(loc event.Location) string {
	switch {
	case loc.Name != "" && loc.Address != "":
		return loc.Name + ", " + loc.Address
	case loc.Address != "":
		return loc.Address
	case loc.Name != "" && loc.City != "":
		return loc.Name + ", " + loc.City
	}
	return loc.Name
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// foldLine splits a content line longer than 75 octets into continuation
// lines, never inside a UTF-8 sequence
func foldLine(s string) string {
	if len(s) <= maxLineOctets {
		return s
	}

	var b strings.Builder
	limit := maxLineOctets
	width := 0
	for _, r := range s {
		size := len(string(r))
		if width+size > limit {
			b.WriteString("\r\n ")
			width = 0
			// continuation lines lose one octet to the leading space
			limit = maxLineOctets - 1
		}
		b.WriteRune(r)
		width += size
	}
	return b.String()
}
