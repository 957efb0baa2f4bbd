package ranking

import (
	"strings"
	"unicode/utf8"
)

// Reverse containment (the whole field value appearing inside the token)
// only counts as a match when the field carries real signal: at least
// minReverseFieldLen runes, and no shorter than a quarter of the token.
// Without the bound, a two-letter brand inside a long full-string token
// would score 1.0 and then take the full-match boost.
const (
	minReverseFieldLen   = 4
	maxReverseTokenRatio = 4
)

// Evaluator computes a graded similarity score between a query token and a
// field value. When Fuzzy is false (the backing store reported no trigram
// capability) only exact containment is scored, mirroring the retrieval path.
type Evaluator struct {
	threshold float64
	fuzzy     bool
}

// NewEvaluator creates an evaluator with the configured similarity threshold.
func NewEvaluator(cfg *Config, fuzzy bool) *Evaluator {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().SimilarityThreshold
	}
	return &Evaluator{threshold: threshold, fuzzy: fuzzy}
}

// Score returns a match score in [0,1] for token against fieldValue.
// Empty field values score 0. Case-insensitive containment of the token in
// the field scores 1.0, as does the reverse when the field is long enough to
// count (see reverseContainable); otherwise a trigram overlap ratio, floored
// to 0 below the threshold to exclude noise matches.
func (e *Evaluator) Score(token, fieldValue string) float64 {
	token = strings.ToLower(strings.TrimSpace(token))
	fieldValue = strings.ToLower(strings.TrimSpace(fieldValue))
	if token == "" || fieldValue == "" {
		return 0
	}
	if strings.Contains(fieldValue, token) {
		return 1.0
	}
	if reverseContainable(token, fieldValue) && strings.Contains(token, fieldValue) {
		return 1.0
	}
	if !e.fuzzy {
		return 0
	}
	sim := TrigramSimilarity(token, fieldValue)
	if sim < e.threshold {
		return 0
	}
	return sim
}

func reverseContainable(token, fieldValue string) bool {
	fieldLen := utf8.RuneCountInString(fieldValue)
	return fieldLen >= minReverseFieldLen &&
		fieldLen*maxReverseTokenRatio >= utf8.RuneCountInString(token)
}

// TrigramSimilarity returns the character 3-gram overlap ratio between a and
// b: shared trigrams divided by the size of the union, like the pg_trgm
// similarity() function. Inputs are lowercased and padded so short strings
// still produce trigrams. Returns a value in [0,1].
func TrigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for g := range ta {
		if tb[g] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// trigrams extracts the set of character trigrams from s, padded with two
// leading and one trailing space per word (the pg_trgm convention).
func trigrams(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = true
		}
	}
	return set
}
