package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sheridangray/family-event-planner/internal/calendar"
	"github.com/sheridangray/family-event-planner/internal/dedup"
	"github.com/sheridangray/family-event-planner/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt  time.Time            `json:"generatedAt"`
	InputCount   int                  `json:"inputCount"`
	UniqueEvents []*event.Event       `json:"uniqueEvents"`
	MergeInfo    []dedup.MergeInfo    `json:"mergeInfo"`
	NewEventIDs  []string             `json:"newEventIds"`
	Changes      []*event.EventChange `json:"changes,omitempty"`
	Stats        dedup.Stats          `json:"stats"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(result.UniqueEvents, result.GeneratedAt))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs any value as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.UniqueEvents) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	isNew := make(map[string]bool, len(result.NewEventIDs))
	for _, id := range result.NewEventIDs {
		isNew[id] = true
	}

	for _, evt := range result.UniqueEvents {
		prefix := "   "
		if isNew[evt.ID] {
			prefix = "NEW"
		}
		fmt.Fprintf(w, "%s %s\n", prefix, evt.Title)
		fmt.Fprintf(w, "    %s\n", summaryLine(evt))

		if len(evt.Sources) > 1 {
			fmt.Fprintf(w, "    Sources: %s (merged %s)\n",
				strings.Join(evt.Sources, ", "),
				humanize.RelTime(evt.LastMerged, result.GeneratedAt, "ago", "from now"))
		}

		if verbose {
			fmt.Fprintf(w, "    ID: %s\n", evt.ID)
			if evt.RegistrationURL != "" {
				fmt.Fprintf(w, "    Register: %s\n", evt.RegistrationURL)
			}
			for _, u := range evt.AlternateURLs {
				fmt.Fprintf(w, "    Also at: %s\n", u)
			}
			if evt.AgeRange != nil {
				fmt.Fprintf(w, "    Ages: %g-%g\n", evt.AgeRange.Min, evt.AgeRange.Max)
			}
		}
	}

	exact, fuzzy := 0, 0
	for _, m := range result.MergeInfo {
		if m.MergeType == dedup.MergeExact {
			exact++
		} else {
			fuzzy++
		}
	}

	fmt.Fprintf(w, "\nTotal: %s unique from %s inputs (%d exact, %d fuzzy merges, %d new)\n",
		humanize.Comma(int64(len(result.UniqueEvents))),
		humanize.Comma(int64(result.InputCount)),
		exact, fuzzy, len(result.NewEventIDs))

	return nil
}

// summaryLine renders date, place and cost on one line
func summaryLine(evt *event.Event) string {
	parts := []string{"Date unknown"}
	if evt.HasDate() {
		parts[0] = evt.Date.UTC().Format("Mon Jan 2, 2006 3:04 PM MST")
	}

	if place := evt.Location.Name; place != "" {
		parts = append(parts, place)
	}
	if evt.Location.Address != "" && evt.Location.Address != evt.Location.Name {
		parts = append(parts, evt.Location.Address)
	}

	parts = append(parts, formatCost(evt.Cost))
	return strings.Join(parts, " | ")
}

func formatCost(cost float64) string {
	if cost <= 0 {
		return "Free"
	}
	if cost == math.Trunc(cost) {
		return "$" + humanize.Comma(int64(cost))
	}
	return "$" + humanize.FormatFloat("#,###.##", cost)
}
