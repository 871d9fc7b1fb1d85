package dedup

import (
	"math"
	"testing"

	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/location"
)

const epsilon = 1e-9

func TestDateProximity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"same time", "2025-08-17T10:00:00Z", "2025-08-17T10:00:00Z", 1.0},
		{"within an hour", "2025-08-17T10:00:00Z", "2025-08-17T10:45:00Z", 1.0},
		{"half way", "2025-08-17T10:00:00Z", "2025-08-17T22:30:00Z", 0.5},
		{"a day apart", "2025-08-17T10:00:00Z", "2025-08-18T10:00:00Z", 0.0},
		{"three days apart", "2025-08-17T10:00:00Z", "2025-08-20T10:00:00Z", 0.0},
		{"missing date", "2025-08-17T10:00:00Z", "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newEvent("a", "s", "x", tt.a, "")
			b := newEvent("b", "s", "x", tt.b, "")
			if got := DateProximity(a, b); math.Abs(got-tt.expected) > epsilon {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestExtractTimeOfDay(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		date     string
		expected int
		ok       bool
	}{
		{"clock in title", "Storytime 10:30 am", "", 630, true},
		{"dotted pm", "Movie Night 7:15 p.m.", "", 19*60 + 15, true},
		{"midnight clock", "Countdown 12:00 am", "", 0, true},
		{"timestamp", "Storytime", "2025-08-17T15:45:00Z", 15*60 + 45, true},
		{"midnight timestamp", "Storytime", "2025-08-17T00:00:00Z", 0, false},
		{"nothing", "Storytime", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTimeOfDay(newEvent("a", "s", tt.title, tt.date, ""))
			if ok != tt.ok || got != tt.expected {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.expected, tt.ok, got, ok)
			}
		})
	}
}

func TestTimeOfDayProximity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *event.Event
		expected float64
	}{
		{
			name:     "within half an hour",
			a:        newEvent("a", "s", "x", "2025-08-17T10:00:00Z", ""),
			b:        newEvent("b", "s", "x", "2025-08-17T10:20:00Z", ""),
			expected: 1.0,
		},
		{
			name:     "partial decay",
			a:        newEvent("a", "s", "x", "2025-08-17T10:00:00Z", ""),
			b:        newEvent("b", "s", "x", "2025-08-17T14:15:00Z", ""),
			expected: 0.5,
		},
		{
			name:     "dates too far apart are neutral",
			a:        newEvent("a", "s", "x", "2025-08-17T10:00:00Z", ""),
			b:        newEvent("b", "s", "x", "2025-08-19T18:00:00Z", ""),
			expected: 1.0,
		},
		{
			name:     "unresolved time is neutral",
			a:        newEvent("a", "s", "x", "2025-08-17T00:00:00Z", ""),
			b:        newEvent("b", "s", "x", "2025-08-17T18:00:00Z", ""),
			expected: 1.0,
		},
		{
			name:     "clock text against timestamp",
			a:        newEvent("a", "s", "Concert 7:00 pm", "2025-08-17T00:00:00Z", ""),
			b:        newEvent("b", "s", "Concert", "2025-08-17T19:10:00Z", ""),
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeOfDayProximity(tt.a, tt.b); math.Abs(got-tt.expected) > epsilon {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAgeRangeSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *event.AgeRange
		expected float64
	}{
		{"missing", nil, &event.AgeRange{Min: 2, Max: 5}, 0.5},
		{"identical", &event.AgeRange{Min: 2, Max: 5}, &event.AgeRange{Min: 2, Max: 5}, 1.0},
		{"partial overlap", &event.AgeRange{Min: 0, Max: 10}, &event.AgeRange{Min: 5, Max: 15}, 1.0 / 3.0},
		{"disjoint", &event.AgeRange{Min: 0, Max: 2}, &event.AgeRange{Min: 5, Max: 8}, 0.0},
		{"same single age", &event.AgeRange{Min: 3, Max: 3}, &event.AgeRange{Min: 3, Max: 3}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeRangeSimilarity(tt.a, tt.b); math.Abs(got-tt.expected) > epsilon {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestScoreWeighting(t *testing.T) {
	s := NewScorer(fixedLocation(0.5), DefaultWeights, DefaultBoost)
	a := newEvent("a", "s", "Storytime", "2025-08-17T10:00:00Z", "")
	b := newEvent("b", "s", "Storytime", "2025-08-17T10:00:00Z", "")

	bd := s.Score(a, b)

	// 0.40*1 + 0.25*0.5 + 0.20*1 + 0.10*1 + 0.05*0.5
	if math.Abs(bd.Score-0.85) > epsilon {
		t.Errorf("expected 0.85, got %v", bd.Score)
	}
	if bd.Boosted {
		t.Error("expected no boost with a weak location signal")
	}
}

func TestScoreBoostThresholds(t *testing.T) {
	tests := []struct {
		name     string
		location float64
		dateB    string
		boosted  bool
	}{
		{"location at the boundary", 0.90, "2025-08-17T10:00:00Z", false},
		{"location just above", 0.91, "2025-08-17T10:00:00Z", true},
		{"date just below", 1.0, "2025-08-17T14:00:00Z", false},
		{"date just above", 1.0, "2025-08-17T12:00:00Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(fixedLocation(tt.location), DefaultWeights, DefaultBoost)
			a := newEvent("a", "s", "Storytime", "2025-08-17T10:00:00Z", "")
			b := newEvent("b", "s", "Storytime", tt.dateB, "")

			bd := s.Score(a, b)
			if bd.Boosted != tt.boosted {
				t.Errorf("expected boosted=%v, got %v (breakdown %+v)", tt.boosted, bd.Boosted, bd)
			}
			if bd.Score > 1.0 {
				t.Errorf("expected score capped at 1.0, got %v", bd.Score)
			}
		})
	}
}

func TestScoreBoostApplied(t *testing.T) {
	s := NewScorer(fixedLocation(0.91), DefaultWeights, DefaultBoost)
	a := newEvent("a", "s", "Storytime", "2025-08-17T10:00:00Z", "")
	b := newEvent("b", "s", "Storytime", "2025-08-17T10:00:00Z", "")

	bd := s.Score(a, b)
	base := 0.40 + 0.25*0.91 + 0.20 + 0.10 + 0.05*0.5
	expected := math.Min(1.0, base+DefaultBoost)
	if math.Abs(bd.Score-expected) > epsilon {
		t.Errorf("expected %v, got %v", expected, bd.Score)
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	s := NewScorer(location.New(), DefaultWeights, DefaultBoost)

	events := []*event.Event{
		newEvent("1", "a", "Storytime at SF Library", "2025-08-17T10:00:00Z", "100 Larkin St"),
		newEvent("2", "b", "Toddler Storytime", "2025-08-17T11:30:00Z", "100 Larkin Street, San Francisco"),
		newEvent("3", "c", "Family Science Day 10:00 am", "2025-08-18T00:00:00Z", "75 Hagiwara Tea Garden Dr"),
		newEvent("4", "d", "Kids Yoga", "", ""),
		{ID: "5", Title: "Puppet Show", AgeRange: &event.AgeRange{Min: 3, Max: 8}},
	}

	for i, a := range events {
		for j, b := range events {
			if i == j {
				continue
			}
			ab, ba := s.Similarity(a, b), s.Similarity(b, a)
			if ab != ba {
				t.Errorf("expected symmetric score for %s/%s, got %v and %v", a.ID, b.ID, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("expected score in [0,1] for %s/%s, got %v", a.ID, b.ID, ab)
			}
		}
	}
}
