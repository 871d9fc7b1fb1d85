package scraper

import (
	"os"
	"strings"
	"testing"

	"github.com/sheridangray/family-event-planner/internal/event"
)

func TestParseJSONLD(t *testing.T) {
	f, err := os.Open("testdata/events.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	defer f.Close()

	raws, err := parseJSONLD(f)
	if err != nil {
		t.Fatalf("parseJSONLD failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 events, got %d", len(raws))
	}

	story := raws[0].Event()
	if story.Title != "Storytime at SF Library" {
		t.Errorf("expected storytime title, got %q", story.Title)
	}
	if story.Location.Address != "100 Larkin St, San Francisco, CA, 94102" {
		t.Errorf("unexpected address %q", story.Location.Address)
	}
	if story.Location.Name != "Main Library" || story.Location.City != "San Francisco" {
		t.Errorf("unexpected location %+v", story.Location)
	}
	if story.Date.UTC().Hour() != 17 {
		t.Errorf("expected 17:00 UTC, got %v", story.Date.UTC())
	}
	if story.ImageURL != "https://sfpl.example.com/img/storytime.jpg" {
		t.Errorf("unexpected image %q", story.ImageURL)
	}
	if story.RegistrationURL != "https://sfpl.example.com/storytime" {
		t.Errorf("expected offer URL, got %q", story.RegistrationURL)
	}
	if story.AgeRange == nil || *story.AgeRange != (event.AgeRange{Min: 2, Max: 5}) {
		t.Errorf("expected age range 2-5, got %+v", story.AgeRange)
	}

	science := raws[1].Event()
	if science.Title != "Family Science Day" {
		t.Errorf("expected event from @graph, got %q", science.Title)
	}
	if science.Cost != 12.5 {
		t.Errorf("expected lowest offer 12.5, got %v", science.Cost)
	}
	if science.RegistrationURL != "https://sfpl.example.com/science" {
		t.Errorf("expected event URL fallback, got %q", science.RegistrationURL)
	}
	if science.Location.Name != "Golden Gate Park" {
		t.Errorf("expected place name, got %+v", science.Location)
	}
	if science.AgeRange == nil || science.AgeRange.Min != 7 || science.AgeRange.Max != openAgeMax {
		t.Errorf("expected open-ended range from 7, got %+v", science.AgeRange)
	}
}

func TestParseJSONLDNoEvents(t *testing.T) {
	raws, err := parseJSONLD(strings.NewReader(`<html><body><p>No events</p></body></html>`))
	if err != nil {
		t.Fatalf("parseJSONLD failed: %v", err)
	}
	if len(raws) != 0 {
		t.Errorf("expected no events, got %d", len(raws))
	}
}

func TestParseAgeRange(t *testing.T) {
	tests := []struct {
		input    string
		expected *event.AgeRange
	}{
		{"3-5", &event.AgeRange{Min: 3, Max: 5}},
		{"4", &event.AgeRange{Min: 4, Max: 4}},
		{"21-", &event.AgeRange{Min: 21, Max: 21}},
		{"all ages", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAgeRange(tt.input)
			switch {
			case tt.expected == nil && got != nil:
				t.Errorf("expected nil, got %+v", got)
			case tt.expected != nil && (got == nil || *got != *tt.expected):
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}
