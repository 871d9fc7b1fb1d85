package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw is an event record as emitted by a scraper. Producers do not share a
// schema, so every field is optional and a few accept more than one JSON
// type. Call Event to resolve defaults.
type Raw struct {
	ID              string       `json:"id"`
	Source          string       `json:"source"`
	Title           string       `json:"title"`
	Date            FlexString   `json:"date"`
	StartDate       FlexString   `json:"startDate"`
	Location        *Location    `json:"location"`
	Address         string       `json:"address"`
	AgeRange        *AgeRange    `json:"ageRange"`
	Cost            *Amount      `json:"cost"`
	Description     string       `json:"description"`
	ImageURL        string       `json:"imageUrl"`
	RegistrationURL string       `json:"registrationUrl"`
	Sources         []string     `json:"sources"`
	AlternateURLs   []string     `json:"alternateUrls"`
	MergedFrom      []ListingRef `json:"mergedFrom"`
	MergeCount      int          `json:"mergeCount"`
	LastMerged      FlexString   `json:"lastMerged"`
}

// Event converts the raw record into a fully-formed Event
func (r *Raw) Event() *Event {
	dateText := string(r.Date)
	if dateText == "" {
		dateText = string(r.StartDate)
	}

	evt := &Event{
		ID:              strings.TrimSpace(r.ID),
		Source:          strings.TrimSpace(r.Source),
		Title:           strings.TrimSpace(r.Title),
		Date:            ParseDate(dateText),
		Description:     r.Description,
		ImageURL:        strings.TrimSpace(r.ImageURL),
		RegistrationURL: strings.TrimSpace(r.RegistrationURL),
		MergeCount:      r.MergeCount,
		LastMerged:      ParseDate(string(r.LastMerged)),
	}

	if r.Location != nil {
		evt.Location = *r.Location
	}
	if evt.Location.Address == "" {
		evt.Location.Address = r.Address
	}

	if r.AgeRange != nil {
		ar := *r.AgeRange
		if ar.Min > ar.Max {
			ar.Min, ar.Max = ar.Max, ar.Min
		}
		evt.AgeRange = &ar
	}

	if r.Cost != nil {
		evt.Cost = float64(*r.Cost)
	}

	if len(r.Sources) > 0 {
		evt.Sources = append([]string(nil), r.Sources...)
	}
	if len(r.AlternateURLs) > 0 {
		evt.AlternateURLs = append([]string(nil), r.AlternateURLs...)
	}
	if len(r.MergedFrom) > 0 {
		evt.MergedFrom = append([]ListingRef(nil), r.MergedFrom...)
	}

	if evt.ID == "" {
		evt.ID = GenerateID(evt.Source, evt.Title, dateText)
	}

	return evt
}

// DecodeRaw decodes either a JSON array of raw events or a single object
func DecodeRaw(data []byte) ([]*Raw, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		var r Raw
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding event: %w", err)
		}
		return []*Raw{&r}, nil
	}

	var raws []*Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return raws, nil
}

// FromRaw converts a batch of raw records, skipping nil entries
func FromRaw(raws []*Raw) []*Event {
	events := make([]*Event, 0, len(raws))
	for _, r := range raws {
		if r == nil {
			continue
		}
		events = append(events, r.Event())
	}
	return events
}

// FlexString accepts a JSON string, number or null. Numbers are treated as
// Unix epoch milliseconds and rendered as RFC3339.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		// Unknown shape: keep the text and let date parsing degrade
		*f = FlexString(data)
		return nil
	}
	*f = FlexString(time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339))
	return nil
}

// Amount is a cost that may arrive as a number or as text like "$12.50" or "Free"
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}

	if data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*a = Amount(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Amount(ParseCost(s))
	return nil
}

// ParseCost extracts the first numeric amount from cost text.
// Text without a number ("Free", "Donation") is 0.
func ParseCost(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	start := -1
	for i, r := range s {
		if (r >= '0' && r <= '9') || (r == '.' && start == -1 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9') {
			start = i
			break
		}
	}
	if start == -1 {
		return 0
	}

	end := start
	for end < len(s) && ((s[end] >= '0' && s[end] <= '9') || s[end] == '.') {
		end++
	}

	v, err := strconv.ParseFloat(strings.TrimRight(s[start:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}
