// Package search implements the query interpretation and retrieval pipeline:
// tokenization, match planning, candidate retrieval, scoring, and formatting.
package search

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/recallwatch/recallsearch/internal/models"
)

// compoundSeparator matches the "Brand - Product" convention: a dash
// surrounded by whitespace. Hyphens inside words are left alone.
var compoundSeparator = regexp.MustCompile(`\s+-\s+`)

// shortQueryMaxWords is the word count at or below which a query is matched
// as a single token rather than decomposed into keywords.
const shortQueryMaxWords = 3

// minKeywordLen drops noise tokens like "a" or "&" from long queries.
const minKeywordLen = 2

// stopwords are corporate/legal suffixes and connector words that carry no
// search signal on their own.
var stopwords = map[string]bool{
	"llc":  true,
	"inc":  true,
	"corp": true,
	"ltd":  true,
	"co":   true,
	"and":  true,
	"the":  true,
	"with": true,
	"of":   true,
	"for":  true,
}

// Tokenize decomposes a raw query string into a tagged TokenSet.
//
// A query containing a dash surrounded by whitespace is split into brand and
// product parts; a short query stays a single token; a long query yields its
// significant words. The full original string is always retained as a
// fallback token so queries that exactly match one field are never missed.
// Empty or whitespace-only input yields an empty set.
func Tokenize(raw string) models.TokenSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.TokenSet{Kind: models.KindNone}
	}

	if loc := compoundSeparator.FindStringIndex(raw); loc != nil {
		brand := strings.TrimSpace(raw[:loc[0]])
		product := strings.TrimSpace(raw[loc[1]:])
		if brand != "" && product != "" {
			return models.TokenSet{
				Kind: models.KindCompound,
				Tokens: []models.Token{
					{Text: raw, Role: models.RoleFull},
					{Text: brand, Role: models.RoleBrand},
					{Text: product, Role: models.RoleProduct},
				},
			}
		}
	}

	if len(strings.Fields(raw)) <= shortQueryMaxWords {
		return models.TokenSet{
			Kind:   models.KindSimple,
			Tokens: []models.Token{{Text: raw, Role: models.RoleFull}},
		}
	}

	tokens := []models.Token{{Text: raw, Role: models.RoleFull}}
	for _, word := range SignificantWords(raw) {
		tokens = append(tokens, models.Token{Text: word, Role: models.RoleKeyword})
	}
	return models.TokenSet{Kind: models.KindKeywords, Tokens: tokens}
}

// TokenizeKeywords builds a TokenSet from an explicit keyword list, with the
// joined string as the full-string fallback token.
func TokenizeKeywords(keywords []string) models.TokenSet {
	var clean []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			clean = append(clean, kw)
		}
	}
	if len(clean) == 0 {
		return models.TokenSet{Kind: models.KindNone}
	}

	tokens := []models.Token{{Text: strings.Join(clean, " "), Role: models.RoleFull}}
	for _, kw := range clean {
		tokens = append(tokens, models.Token{Text: kw, Role: models.RoleKeyword})
	}
	return models.TokenSet{Kind: models.KindKeywords, Tokens: tokens}
}

// SignificantWords splits s on whitespace and punctuation, drops stopwords
// and tokens shorter than the minimum length, and returns the rest in order
// without duplicates.
func SignificantWords(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var out []string
	for _, w := range words {
		if len([]rune(w)) < minKeywordLen || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
