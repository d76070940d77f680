package geo

import (
	"regexp"
	"strings"

	"github.com/sweetpotato0/tripmate/config"
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Tokenize splits a phrase into alphanumeric tokens.
func Tokenize(text string) []string {
	return tokenRegex.FindAllString(text, -1)
}

// Candidates derives the ordered, deduplicated list of geocoder probes for a
// raw location phrase. Order encodes decreasing specificity: the raw phrase,
// a simplified phrase with weather/filler words removed, the
// misspelling-corrected token join, the first two corrected tokens, the
// first corrected token, and finally the first raw token. Deduplication is
// case-insensitive and preserves first-seen order.
func Candidates(phrase string, tables *config.Tables) []string {
	if tables == nil {
		tables = config.DefaultTables()
	}

	tokens := Tokenize(phrase)
	corrected := make([]string, len(tokens))
	for i, tok := range tokens {
		corrected[i] = tables.Correct(tok)
	}

	candidates := []string{phrase}
	if simplified := simplify(phrase, tokens, tables); simplified != phrase {
		candidates = append(candidates, simplified)
	}

	if len(corrected) > 0 {
		candidates = append(candidates, strings.Join(corrected, " "))
		if len(corrected) >= 2 {
			candidates = append(candidates, strings.Join(corrected[:2], " "))
			candidates = append(candidates, corrected[0])
		}
	}
	if len(tokens) > 0 {
		candidates = append(candidates, tokens[0])
	}

	return dedupe(candidates)
}

// simplify drops stop-words to improve geocoding of colloquial phrasing.
// When every token is a stop-word, the phrase stays untouched.
func simplify(phrase string, tokens []string, tables *config.Tables) string {
	cleaned := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !tables.IsStopWord(tok) {
			cleaned = append(cleaned, tok)
		}
	}
	if len(cleaned) == 0 {
		return phrase
	}
	return strings.Join(cleaned, " ")
}

func dedupe(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		key := strings.ToLower(strings.TrimSpace(cand))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, cand)
	}
	return unique
}
