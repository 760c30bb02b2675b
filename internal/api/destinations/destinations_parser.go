package destinations

import (
	"strings"
	"unicode/utf8"
)

// explanationWords flag lines that are model chatter rather than destinations.
var explanationWords = []string{"ejemplo", "formato", "instrucción", "responde"}

// ParseList extracts "Ciudad, País" destinations from a line-oriented model
// response. One destination per line; comments, blank lines and explanatory
// prose are dropped. A line without a comma is never a destination.
func ParseList(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		length := utf8.RuneCountInString(line)
		if length < 3 || (strings.HasSuffix(line, ".") && length < 20) {
			continue
		}
		if containsExplanation(strings.ToLower(line)) {
			continue
		}
		if strings.Contains(line, ",") {
			out = append(out, line)
		}
	}
	return out
}

func containsExplanation(lower string) bool {
	for _, w := range explanationWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
