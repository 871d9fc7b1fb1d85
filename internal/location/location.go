package location

import (
	"regexp"
	"strings"

	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/similarity"
)

// Scores returned when one or both addresses are missing
const (
	bothMissingScore = 0.5
	oneMissingScore  = 0.0
)

var abbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"road":      "rd",
	"drive":     "dr",
	"lane":      "ln",
	"court":     "ct",
	"place":     "pl",
	"square":    "sq",
	"parkway":   "pkwy",
	"highway":   "hwy",
	"terrace":   "ter",
	"suite":     "ste",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
	"northeast": "ne",
	"northwest": "nw",
	"southeast": "se",
	"southwest": "sw",
}

var streetSuffixes = map[string]bool{
	"st": true, "ave": true, "blvd": true, "rd": true, "dr": true, "ln": true,
	"ct": true, "pl": true, "sq": true, "pkwy": true, "hwy": true, "ter": true, "way": true,
}

var (
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	numberPattern  = regexp.MustCompile(`^\d+[a-z]?\b`)
	zipPattern     = regexp.MustCompile(`\b\d{5}(?:\s?\d{4})?\b`)
)

// Comparator is the default address comparator. The zero value is ready to use.
type Comparator struct{}

// New returns a Comparator
func New() *Comparator {
	return &Comparator{}
}

// NormalizeAddress lowercases, strips punctuation and abbreviates common
// street suffixes and directions.
func (c *Comparator) NormalizeAddress(address string) string {
	return NormalizeAddress(address)
}

// CompareLocations scores two locations in [0,1]. The result is symmetric.
func (c *Comparator) CompareLocations(a, b event.Location) float64 {
	return CompareAddresses(a.Address, b.Address)
}

// NormalizeAddress is the package-level form of Comparator.NormalizeAddress
func NormalizeAddress(address string) string {
	n := strings.ToLower(strings.TrimSpace(address))
	if n == "" {
		return ""
	}

	n = strings.ReplaceAll(n, "-", " ")
	n = nonWordPattern.ReplaceAllString(n, "")

	words := strings.Fields(n)
	for i, w := range words {
		if abbr, ok := abbreviations[w]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}

// components splits a normalized address into house number, street and zip
type components struct {
	number string
	street string
	zip    string
}

func extractComponents(normalized string) components {
	var comp components

	comp.number = numberPattern.FindString(normalized)
	comp.zip = zipPattern.FindString(normalized)

	street := strings.TrimSpace(strings.TrimPrefix(normalized, comp.number))
	if comp.zip != "" {
		if i := strings.Index(street, comp.zip); i >= 0 {
			street = street[:i]
		}
	}
	// The street ends at its suffix; anything after is city and state
	words := strings.Fields(street)
	for i, w := range words {
		if streetSuffixes[w] && i > 0 {
			words = words[:i+1]
			break
		}
	}
	comp.street = strings.Join(words, " ")

	return comp
}

// CompareAddresses weighs street name most, then house number, then zip.
func CompareAddresses(a, b string) float64 {
	na, nb := NormalizeAddress(a), NormalizeAddress(b)

	switch {
	case na == "" && nb == "":
		return bothMissingScore
	case na == "" || nb == "":
		return oneMissingScore
	case na == nb:
		return 1.0
	}

	ca, cb := extractComponents(na), extractComponents(nb)

	score, total := 0.0, 0.0

	if ca.number != "" && cb.number != "" {
		if ca.number == cb.number {
			score += 0.3
		}
		total += 0.3
	}

	if ca.street != "" && cb.street != "" {
		score += 0.6 * similarity.CompositeStringSimilarity(ca.street, cb.street)
		total += 0.6
	}

	if ca.zip != "" && cb.zip != "" {
		if ca.zip == cb.zip {
			score += 0.1
		}
		total += 0.1
	}

	if total == 0 {
		return similarity.CompositeStringSimilarity(na, nb)
	}
	return score / total
}
