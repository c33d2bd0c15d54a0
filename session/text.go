package session

import (
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// SplitParagraphs splits free text on blank lines. Empty paragraphs are
// dropped and surrounding whitespace trimmed.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
