package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StopWords are removed as whole words during normalization
var StopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "at": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "by": {},
}

// Normalize case-folds s, strips punctuation, removes stop words and
// collapses whitespace. Empty input yields the empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	folded, _, err := transform.String(transform.Chain(norm.NFKC, cases.Fold()), s)
	if err != nil {
		folded = strings.ToLower(s)
	}

	var sb strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		case unicode.IsMark(r):
			// combining marks belong to the preceding letter
			sb.WriteRune(r)
		}
	}

	words := strings.Fields(sb.String())
	kept := words[:0]
	for _, w := range words {
		if _, stop := StopWords[w]; !stop {
			kept = append(kept, w)
		}
	}

	return strings.Join(kept, " ")
}
