package fuzzyx

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
)

// All lengths and edits are counted in Unicode code points after NFC
// normalization, so "é" is one unit whether it arrived precomposed or not.

func normalize(s string, caseSensitive bool) string {
	s = norm.NFC.String(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Distance returns the Levenshtein distance between a and b, ignoring case.
// An empty input yields the length of the other one.
func Distance(a, b string) int {
	return fuzzy.LevenshteinDistance(normalize(a, false), normalize(b, false))
}

// Similarity returns 1 - Distance(a, b)/max(len(a), len(b)) in [0,1].
// Equal strings score 1; an empty argument scores 0, even when both are empty.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = normalize(a, false), normalize(b, false)
	if a == b {
		return 1
	}
	return ratio(fuzzy.LevenshteinDistance(a, b), runeLen(a), runeLen(b))
}

func ratio(distance, la, lb int) float64 {
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	s := 1 - float64(distance)/float64(longest)
	return min(max(s, 0), 1)
}
