package recipe

import (
	"regexp"
	"strconv"
)

const (
	MinServings     = 1
	MaxServings     = 100
	DefaultServings = 2
)

// Patterns are tried in order; the first match wins.
var servingsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bserves\s+(\d+)`),
	regexp.MustCompile(`(?i)\bfür\s+(\d+)\s+person(?:en)?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s+portion(?:en|s)?\b`),
}

// ValidServings reports whether n lies in [MinServings, MaxServings].
func ValidServings(n int) bool {
	return n >= MinServings && n <= MaxServings
}

// ExtractServings finds an embedded servings count in recipe text. A match
// whose value lies outside the valid range counts as no match.
func ExtractServings(text string) (int, bool) {
	for _, pattern := range servingsPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || !ValidServings(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ServingsOrDefault is ExtractServings falling back to DefaultServings.
func ServingsOrDefault(text string) int {
	if n, ok := ExtractServings(text); ok {
		return n
	}
	return DefaultServings
}

// Servings is the pair of counts for the active recipe. Current equal to
// Original means no rescale is pending.
type Servings struct {
	Original int `json:"original"`
	Current  int `json:"current"`
}

// DefaultServingsPair returns both counts set to DefaultServings.
func DefaultServingsPair() Servings {
	return Servings{Original: DefaultServings, Current: DefaultServings}
}

// Uniform returns a pair with both counts set to n.
func Uniform(n int) Servings {
	return Servings{Original: n, Current: n}
}
