package recipe

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxDisplayTitleRunes bounds rendered titles. Stored titles are never truncated.
const MaxDisplayTitleRunes = 50

// DeriveTitle returns the first non-empty line of text, stripped of common
// markdown heading and emphasis markers.
func DeriveTitle(text string) string {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#*_ ")
		line = strings.TrimRight(line, "*_ ")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// DisplayTitle truncates title to MaxDisplayTitleRunes runes with an ellipsis.
// The title is NFC-normalized first so combining sequences count once.
func DisplayTitle(title string) string {
	title = norm.NFC.String(strings.TrimSpace(title))
	runes := []rune(title)
	if len(runes) <= MaxDisplayTitleRunes {
		return title
	}
	return strings.TrimSpace(string(runes[:MaxDisplayTitleRunes-1])) + "…"
}
