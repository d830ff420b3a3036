package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// Similarity is 1 - levenshtein(a, b) / max(len(a), len(b)), in [0, 1].
func Similarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(d)/float64(longest)
}

// partialScore scores a substring or token-prefix relation between two
// lowercase names. ok is false when neither holds, the shorter side is
// under minPartialRunes, or shorter/longer falls below minRatio.
func partialScore(a, b string, minRatio float64) (score float64, ok bool) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if shorter < minPartialRunes {
		return 0, false
	}
	ratio := float64(shorter) / float64(longer)
	if ratio < minRatio {
		return 0, false
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) && !tokenPrefix(tokens(a), tokens(b)) {
		return 0, false
	}
	return partialBase + partialSpan*ratio, true
}

// tokenPrefix reports whether one token sequence starts the other.
func tokenPrefix(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// tokens splits an identifier or phrase into lowercase words on
// non-alphanumerics and lower-to-upper case changes.
func tokens(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, unicode.ToLower(r))
		default:
			cur = append(cur, unicode.ToLower(r))
		}
		prev = r
	}
	flush()
	return out
}
