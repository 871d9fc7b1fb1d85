package event

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// Location describes where an event takes place
type Location struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

// AgeRange holds inclusive age bounds in years
type AgeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns the width of the range
func (r AgeRange) Span() float64 {
	return r.Max - r.Min
}

// Event is a fully-formed event record. Optional fields carry their zero
// value when the producer did not supply them; Date is the zero time when
// the source date was missing or could not be parsed.
type Event struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Title           string    `json:"title"`
	Date            time.Time `json:"date,omitzero"`
	Location        Location  `json:"location"`
	AgeRange        *AgeRange `json:"ageRange,omitempty"`
	Cost            float64   `json:"cost"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	RegistrationURL string    `json:"registrationUrl,omitempty"`

	// Populated by the merge engine
	Sources       []string     `json:"sources,omitempty"`
	AlternateURLs []string     `json:"alternateUrls,omitempty"`
	MergedFrom    []ListingRef `json:"mergedFrom,omitempty"`
	MergeCount    int          `json:"mergeCount"`
	LastMerged    time.Time    `json:"lastMerged,omitzero"`
}

// ListingRef identifies one producer listing. IDs are only unique within
// their source.
type ListingRef struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// Ref returns the listing this event was produced as
func (e *Event) Ref() ListingRef {
	return ListingRef{Source: e.Source, ID: e.ID}
}

// GenerateID creates a deterministic ID for an event that arrived without one
func GenerateID(source, title, dateText string) string {
	h := sha1.New()
	h.Write([]byte(source + "|" + title + "|" + dateText))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HasDate reports whether the event carries a usable date
func (e *Event) HasDate() bool {
	return !e.Date.IsZero()
}

// Clone returns a deep copy of the event
func (e *Event) Clone() *Event {
	c := *e
	if e.AgeRange != nil {
		r := *e.AgeRange
		c.AgeRange = &r
	}
	if e.Sources != nil {
		c.Sources = append([]string(nil), e.Sources...)
	}
	if e.AlternateURLs != nil {
		c.AlternateURLs = append([]string(nil), e.AlternateURLs...)
	}
	if e.MergedFrom != nil {
		c.MergedFrom = append([]ListingRef(nil), e.MergedFrom...)
	}
	return &c
}
