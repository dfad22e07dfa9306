package textutil

import (
	"math"
	"regexp"
	"strings"
)

const gramSize = 3

var separatorPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Fingerprint represents a trigram-frequency vector for similarity comparison.
type Fingerprint struct {
	grams map[string]float64
	norm  float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text has no alphanumeric characters.
func NewFingerprint(text string) *Fingerprint {
	grams := Trigrams(text)
	if len(grams) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(grams))
	for _, gram := range grams {
		counts[gram]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		grams: counts,
		norm:  math.Sqrt(norm),
	}
}

// Normalize lowercases text and collapses separators to single spaces.
func Normalize(text string) string {
	return strings.TrimSpace(separatorPattern.ReplaceAllString(strings.ToLower(text), " "))
}

// Trigrams returns the overlapping three-character windows of the padded,
// normalized text.
func Trigrams(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	padded := []rune(" " + normalized + " ")
	if len(padded) < gramSize {
		return []string{string(padded)}
	}
	out := make([]string, 0, len(padded)-gramSize+1)
	for i := 0; i+gramSize <= len(padded); i++ {
		out = append(out, string(padded[i:i+gramSize]))
	}
	return out
}

// GramCount returns the number of unique trigrams in the fingerprint.
func (f *Fingerprint) GramCount() int {
	if f == nil {
		return 0
	}
	return len(f.grams)
}
