// Package security guards the prompts against injection attempts hidden in
// user input or replayed through the conversation history.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// MaxInputLength caps user questions before they reach the prompt builder.
const MaxInputLength = 2000

// injectionPatterns covers the Spanish and English phrasings seen in the wild
// plus delimiter-escape sequences. Matched against lowercased input.
var injectionPatterns = []*regexp.Regexp{
	// Spanish
	regexp.MustCompile(`ignora\s+(las\s+)?instrucciones\s+(anteriores|previas|del\s+sistema)`),
	regexp.MustCompile(`olvida\s+(todo\s+)?lo\s+anterior`),
	regexp.MustCompile(`eres\s+ahora\s+[^.]*`),
	regexp.MustCompile(`repite\s+(todas\s+)?las\s+instrucciones`),
	regexp.MustCompile(`no\s+sigas\s+(las\s+)?reglas`),
	regexp.MustCompile(`ignora\s+(el\s+)?prompt\s+(anterior|inicial)`),
	regexp.MustCompile(`actúa\s+como\s+[^.]*`),
	regexp.MustCompile(`desobedece\s+[^.]*`),
	regexp.MustCompile(`cambia\s+tu\s+(rol|personalidad|comportamiento)`),
	regexp.MustCompile(`ejecuta\s+[^.]*`),
	regexp.MustCompile(`mostrar\s+(el\s+)?prompt\s+(completo|original)`),
	regexp.MustCompile(`revelar\s+[^.]*`),
	regexp.MustCompile(`mostrar\s+(las\s+)?instrucciones`),
	// English
	regexp.MustCompile(`ignore\s+(the\s+)?(previous|prior|system\s+)?instructions?`),
	regexp.MustCompile(`forget\s+(all\s+)?(the\s+)?previous`),
	regexp.MustCompile(`you\s+are\s+now\s+[^.]*`),
	regexp.MustCompile(`repeat\s+(all\s+)?(the\s+)?instructions?`),
	regexp.MustCompile(`don'?t\s+follow\s+(the\s+)?rules?`),
	regexp.MustCompile(`ignore\s+(the\s+)?(previous\s+)?prompt`),
	regexp.MustCompile(`act\s+as\s+[^.]*`),
	regexp.MustCompile(`disobey\s+[^.]*`),
	regexp.MustCompile(`change\s+your\s+(role|personality|behavior)`),
	regexp.MustCompile(`execute\s+[^.]*`),
	regexp.MustCompile(`show\s+(the\s+)?(complete\s+)?prompt`),
	regexp.MustCompile(`reveal\s+[^.]*`),
	regexp.MustCompile(`display\s+(the\s+)?instructions?`),
	// Delimiter escapes
	regexp.MustCompile("<<<[^>]*>>>"),
	regexp.MustCompile(`###[^#]*###`),
	regexp.MustCompile("```[^`]*```"),
	regexp.MustCompile(`---[^-]*---`),
	regexp.MustCompile(`\{\{[^}]*\}\}`),
}

var (
	controlChars     = regexp.MustCompile(`[\x00-\x1f\x7f\x{0080}-\x{009f}]`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	delimiterMarkers = regexp.MustCompile("<<<|>>>|###|```|---|\\{\\{|\\}\\}")
)

const maxDelimiterHits = 3

// SanitizeInput strips control characters, collapses whitespace runs and caps
// the length. Total: any input maps to a safe string.
func SanitizeInput(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxInputLength
	}

	text = controlChars.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxLength {
		text = string(runes[:maxLength])
	}
	return text
}

// DetectPromptInjection reports whether the text looks like an injection
// attempt and, when it does, a short human-readable reason.
func DetectPromptInjection(text string) (bool, string) {
	if text == "" {
		return false, ""
	}

	lower := strings.ToLower(text)
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(lower) {
			return true, fmt.Sprintf("patrón sospechoso detectado: %s", pattern.String())
		}
	}

	if len(delimiterMarkers.FindAllString(text, -1)) >= maxDelimiterHits {
		return true, "múltiples intentos de escape de delimitadores detectados"
	}
	return false, ""
}

// SanitizeHistory renders conversation messages as a "Usuario:/Alex:"
// transcript for prompt inclusion, dropping messages that trip the injection
// detector and truncating at the total budget.
func SanitizeHistory(messages []types.Message, maxMessageLength, maxTotalLength int) string {
	if len(messages) == 0 {
		return ""
	}
	if maxMessageLength <= 0 {
		maxMessageLength = 1000
	}
	if maxTotalLength <= 0 {
		maxTotalLength = 5000
	}

	var parts []string
	total := 0
	for _, msg := range messages {
		content := SanitizeInput(msg.Content, maxMessageLength)
		if content == "" {
			continue
		}
		if injected, _ := DetectPromptInjection(content); injected {
			continue
		}

		name := "Alex"
		if msg.Role == types.RoleUser {
			name = "Usuario"
		}
		line := name + ": " + content

		if total+len(line) > maxTotalLength {
			remaining := maxTotalLength - total
			if remaining > 50 {
				parts = append(parts, line[:remaining]+"...")
			}
			break
		}
		parts = append(parts, line)
		total += len(line)
	}
	return strings.Join(parts, "\n")
}

// AddDelimiters fences text so the model can tell user data from instructions.
func AddDelimiters(text, label string) string {
	if text == "" {
		return ""
	}
	return fmt.Sprintf("<<<%s>>>\n%s\n<<</%s>>>", label, text, label)
}
