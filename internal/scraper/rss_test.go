package scraper

import (
	"os"
	"testing"
	"time"
)

func TestParseFeed(t *testing.T) {
	data, err := os.ReadFile("testdata/feed.xml")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	raws, err := parseFeed(data, "funcheapsf")
	if err != nil {
		t.Fatalf("parseFeed failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 items, got %d", len(raws))
	}

	story := raws[0].Event()
	expectedDate := time.Date(2025, 8, 17, 17, 5, 0, 0, time.UTC)
	if !story.Date.Equal(expectedDate) {
		t.Errorf("expected ev:startdate %v, got %v", expectedDate, story.Date)
	}
	if story.Location.Address != "100 Larkin St., San Francisco" {
		t.Errorf("expected ev:location address, got %q", story.Location.Address)
	}
	if story.Description != "Free storytime for little ones." {
		t.Errorf("expected HTML stripped from description, got %q", story.Description)
	}
	if story.ImageURL != "https://funcheap.example.com/img/storytime.jpg" {
		t.Errorf("expected enclosure image, got %q", story.ImageURL)
	}
	if story.ID == "" || story.ID == raws[1].Event().ID {
		t.Errorf("expected distinct IDs from GUIDs, got %q", story.ID)
	}

	yoga := raws[1].Event()
	if !yoga.Date.Equal(time.Date(2025, 8, 23, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("expected publish date fallback, got %v", yoga.Date)
	}
	if yoga.RegistrationURL != "https://funcheap.example.com/yoga" {
		t.Errorf("expected item link, got %q", yoga.RegistrationURL)
	}
}

func TestParseFeedInvalid(t *testing.T) {
	if _, err := parseFeed([]byte("not a feed"), "x"); err == nil {
		t.Error("expected an error for invalid feed")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text ", "plain text"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := stripHTML(tt.input); got != tt.expected {
			t.Errorf("stripHTML(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
