package destination

import "strings"

// explicitChangeKeywords signal a deliberate intent to switch destination.
// Fixed Spanish list carried over from the heuristic's original tuning;
// phrasings in other languages are a known limitation and are intentionally
// not guessed at.
var explicitChangeKeywords = []string{
	"cambiar", "cambio", "ahora quiero", "quiero ir a",
	"mejor", "prefiero", "en lugar de", "cambiar a", "cambiar destino",
	"ahora", "mejor destino", "otro destino", "diferente destino",
}

// DetectChange classifies a chat question against the session's current
// destination:
//   - no destination extracted: (false, "", false)
//   - no current destination: (false, detected, true) — the first destination
//     ever mentioned establishes itself, it is not a contested change
//   - same destination: (false, detected, false)
//   - different destination: (true, detected, explicit) where explicit means
//     the question carries a change keyword; an incidental mention must not
//     silently hijack the conversation.
func DetectChange(currentDestination, question string) (isChange bool, detected string, isExplicit bool) {
	detected, ok := Extract(question)
	if !ok {
		return false, "", false
	}

	if currentDestination == "" {
		return false, detected, true
	}

	if Equal(currentDestination, detected) {
		return false, detected, false
	}

	questionLower := strings.ToLower(question)
	for _, kw := range explicitChangeKeywords {
		if strings.Contains(questionLower, kw) {
			return true, detected, true
		}
	}
	return true, detected, false
}
