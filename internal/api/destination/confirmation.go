package destination

import (
	"strings"
)

var affirmativeReplies = []string{
	"sí", "si", "yes", "vale", "ok", "okay", "claro", "correcto",
	"de acuerdo", "por supuesto", "perfecto", "claro que sí", "sí quiero",
	"sí, cambiar", "cambiar",
}

var negativeReplies = []string{
	"no", "nope", "prefiero el actual", "mantener", "mantener el actual",
	"me quedo", "quedarme", "continuar", "seguir", "mejor no", "no gracias",
	"no, gracias", "el actual",
}

var replyPunctuation = strings.NewReplacer(
	"¿", "", "?", "", "¡", "", "!", "", ".", "", ",", " ",
)

// InterpretReply classifies a free-text reply to a pending destination-change
// confirmation. Exactly one of four outcomes:
//   - affirmative: (true, &true)
//   - negative: (true, &false)
//   - ambiguous, about the confirmation but unclear: (true, nil)
//   - not a reply at all: (false, nil) — the caller treats the text as a fresh
//     question.
//
// Short yes/no markers are matched as (near-)whole replies; restating one of
// the two candidate destinations counts as an implicit choice. Never errors:
// the worst case is not-a-reply.
func InterpretReply(reply, detectedDestination, currentDestination string) (isResponse bool, confirmed *bool) {
	cleaned := cleanReply(reply)
	if cleaned == "" {
		return false, nil
	}

	mentionsDetected := mentionsDestination(cleaned, detectedDestination)
	mentionsCurrent := mentionsDestination(cleaned, currentDestination)
	if mentionsDetected && mentionsCurrent {
		return true, nil
	}

	if matchesWholeReply(cleaned, affirmativeReplies) {
		return true, boolPtr(true)
	}
	if matchesWholeReply(cleaned, negativeReplies) {
		return true, boolPtr(false)
	}

	if mentionsDetected {
		return true, boolPtr(true)
	}
	if mentionsCurrent {
		return true, boolPtr(false)
	}

	// Longer replies that still open with a bare yes/no word ("sí, por favor").
	words := strings.Fields(cleaned)
	if len(words) <= 5 {
		hasYes := containsWord(words, "si", "yes", "vale", "ok", "claro", "correcto")
		hasNo := containsWord(words, "no")
		switch {
		case hasYes && hasNo:
			return true, nil
		case hasYes:
			return true, boolPtr(true)
		case hasNo:
			return true, boolPtr(false)
		}
	}

	return false, nil
}

// cleanReply strips punctuation, folds accents and collapses whitespace so
// replies compare against the marker lists on equal footing.
func cleanReply(s string) string {
	cleaned := Normalize(replyPunctuation.Replace(s))
	return strings.Join(strings.Fields(cleaned), " ")
}

func matchesWholeReply(cleaned string, candidates []string) bool {
	for _, c := range candidates {
		if cleaned == cleanReply(c) {
			return true
		}
	}
	return false
}

func mentionsDestination(cleanedReply, dest string) bool {
	if dest == "" {
		return false
	}
	city := cityPart(Normalize(dest))
	return city != "" && strings.Contains(cleanedReply, city)
}

func containsWord(words []string, targets ...string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }
