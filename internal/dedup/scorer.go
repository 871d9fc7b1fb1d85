package dedup

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/similarity"
)

// LocationComparator normalizes and compares event addresses
type LocationComparator interface {
	CompareLocations(a, b event.Location) float64
	NormalizeAddress(address string) string
}

// Weights controls how much each signal contributes to the composite score
type Weights struct {
	Title     float64 `yaml:"title"`
	Location  float64 `yaml:"location"`
	Date      float64 `yaml:"date"`
	TimeOfDay float64 `yaml:"time_of_day"`
	AgeRange  float64 `yaml:"age_range"`
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Title + w.Location + w.Date + w.TimeOfDay + w.AgeRange
}

// DefaultWeights are the production signal weights
var DefaultWeights = Weights{
	Title:     0.40,
	Location:  0.25,
	Date:      0.20,
	TimeOfDay: 0.10,
	AgeRange:  0.05,
}

const (
	// DefaultBoost is added when title, location and date all agree strongly
	DefaultBoost = 0.10

	boostTitleMin    = 0.95
	boostLocationMin = 0.90
	boostDateMin     = 0.90

	// neutral signal values for missing data
	unknownDateScore     = 0.5
	unknownAgeRangeScore = 0.5
	neutralTimeScore     = 1.0

	dateFullMatch = time.Hour
	dateZeroMatch = 24 * time.Hour
	timeFullMatch = 30 // minutes
	timeZeroMatch = 8 * 60
)

var clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?\s?m\b`)

// Breakdown holds the individual signals behind a composite score
type Breakdown struct {
	Title     float64 `json:"title"`
	Location  float64 `json:"location"`
	Date      float64 `json:"date"`
	TimeOfDay float64 `json:"time_of_day"`
	AgeRange  float64 `json:"age_range"`
	Boosted   bool    `json:"boosted"`
	Score     float64 `json:"score"`
}

// Scorer computes the composite similarity between two events
type Scorer struct {
	weights   Weights
	boost     float64
	locations LocationComparator
}

// NewScorer creates a scorer. Pass DefaultWeights and DefaultBoost for the
// production configuration.
func NewScorer(locations LocationComparator, weights Weights, boost float64) *Scorer {
	return &Scorer{
		weights:   weights,
		boost:     boost,
		locations: locations,
	}
}

// Similarity returns the composite score in [0,1]
func (s *Scorer) Similarity(a, b *event.Event) float64 {
	return s.Score(a, b).Score
}

// Score computes every signal and the weighted composite
func (s *Scorer) Score(a, b *event.Event) Breakdown {
	bd := Breakdown{
		Title:     similarity.CompositeStringSimilarity(similarity.Normalize(a.Title), similarity.Normalize(b.Title)),
		Location:  s.locations.CompareLocations(a.Location, b.Location),
		Date:      DateProximity(a, b),
		TimeOfDay: TimeOfDayProximity(a, b),
		AgeRange:  AgeRangeSimilarity(a.AgeRange, b.AgeRange),
	}

	w := s.weights
	bd.Score = w.Title*bd.Title +
		w.Location*bd.Location +
		w.Date*bd.Date +
		w.TimeOfDay*bd.TimeOfDay +
		w.AgeRange*bd.AgeRange

	if bd.Title > boostTitleMin && bd.Location > boostLocationMin && bd.Date > boostDateMin {
		bd.Score = math.Min(1.0, bd.Score+s.boost)
		bd.Boosted = true
	}

	return bd
}

// DateProximity is 1.0 within an hour, decaying linearly to 0 at 24 hours.
// Events without a usable date score 0.5.
func DateProximity(a, b *event.Event) float64 {
	if !a.HasDate() || !b.HasDate() {
		return unknownDateScore
	}

	gap := absDuration(a.Date.Sub(b.Date))
	switch {
	case gap <= dateFullMatch:
		return 1.0
	case gap >= dateZeroMatch:
		return 0.0
	}
	return 1.0 - float64(gap-dateFullMatch)/float64(dateZeroMatch-dateFullMatch)
}

// TimeOfDayProximity compares the start time of two events that fall within
// a day of each other. 1.0 within 30 minutes, decaying to 0 at 8 hours.
// When either time is unknown, or the dates are further apart, it is neutral.
func TimeOfDayProximity(a, b *event.Event) float64 {
	if !a.HasDate() || !b.HasDate() || absDuration(a.Date.Sub(b.Date)) > dateZeroMatch {
		return neutralTimeScore
	}

	ta, okA := ExtractTimeOfDay(a)
	tb, okB := ExtractTimeOfDay(b)
	if !okA || !okB {
		return neutralTimeScore
	}

	diff := ta - tb
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= timeFullMatch:
		return 1.0
	case diff >= timeZeroMatch:
		return 0.0
	}
	return 1.0 - float64(diff-timeFullMatch)/float64(timeZeroMatch-timeFullMatch)
}

// ExtractTimeOfDay returns the event's start time as minutes after midnight.
// An explicit "H:MM am/pm" in the title or description wins; otherwise a
// timestamp that is not exactly midnight UTC is used.
func ExtractTimeOfDay(e *event.Event) (int, bool) {
	text := e.Title + " " + e.Description
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour >= 1 && hour <= 12 && minute < 60 {
			hour %= 12
			if strings.EqualFold(m[3], "p") {
				hour += 12
			}
			return hour*60 + minute, true
		}
	}

	if !e.HasDate() {
		return 0, false
	}
	d := e.Date.UTC()
	if d.Hour() == 0 && d.Minute() == 0 {
		return 0, false
	}
	return d.Hour()*60 + d.Minute(), true
}

// AgeRangeSimilarity is overlap/union of two age ranges, 0.5 if either is missing
func AgeRangeSimilarity(a, b *event.AgeRange) float64 {
	if a == nil || b == nil {
		return unknownAgeRangeScore
	}

	overlap := math.Max(0, math.Min(a.Max, b.Max)-math.Max(a.Min, b.Min))
	union := math.Max(a.Max, b.Max) - math.Min(a.Min, b.Min)
	if union <= 0 {
		// both ranges are the same single age
		return 1.0
	}
	return overlap / union
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
