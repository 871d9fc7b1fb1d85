package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

const (
	levenshteinWeight = 0.7
	jaccardWeight     = 0.3
)

// LevenshteinSimilarity converts edit distance into a similarity in [0,1]:
// 1 - distance/max(len(a), len(b)), with lengths counted in runes.
func LevenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0.0
	}

	longest := la
	if lb > longest {
		longest = lb
	}

	distance := edlib.LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}

// JaccardSimilarity computes |A ∩ B| / |A ∪ B| over the lower-cased word
// sets of a and b. An empty union yields 0.
func JaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// CompositeStringSimilarity blends edit-distance and word-overlap similarity
func CompositeStringSimilarity(a, b string) float64 {
	return levenshteinWeight*LevenshteinSimilarity(a, b) + jaccardWeight*JaccardSimilarity(a, b)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
