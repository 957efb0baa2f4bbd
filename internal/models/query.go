package models

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyQuery is returned when a search request carries neither free text
// nor keywords. Callers surface it as a client error before any store call.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a search request with optional filters.
type SearchQuery struct {
	Query    string     `json:"query"`
	Keywords []string   `json:"keywords,omitempty"`
	Agencies []string   `json:"agencies,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit,omitempty"`
}

// Validate rejects queries with no usable search text.
// Whitespace-only text and empty keyword entries do not count.
func (q *SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) != "" {
		return nil
	}
	for _, kw := range q.Keywords {
		if strings.TrimSpace(kw) != "" {
			return nil
		}
	}
	return ErrEmptyQuery
}

// EffectiveText returns the search string the pipeline operates on: the raw
// query when present, otherwise the keywords joined with spaces.
func (q *SearchQuery) EffectiveText() string {
	if text := strings.TrimSpace(q.Query); text != "" {
		return text
	}
	return strings.Join(q.Keywords, " ")
}

// TokenRole tags a token with its semantic role in the query.
type TokenRole int

const (
	// RoleFull is the full original query string, kept as a fallback token.
	RoleFull TokenRole = iota
	// RoleBrand is the brand half of a "Brand - Product" compound query.
	RoleBrand
	// RoleProduct is the product half of a "Brand - Product" compound query.
	RoleProduct
	// RoleKeyword is a significant word extracted from a long query.
	RoleKeyword
)

// String returns a string representation of the token role.
func (r TokenRole) String() string {
	switch r {
	case RoleFull:
		return "full"
	case RoleBrand:
		return "brand"
	case RoleProduct:
		return "product"
	case RoleKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// TokenKind classifies how the query was decomposed.
type TokenKind int

const (
	// KindNone means the input produced no tokens (empty query).
	KindNone TokenKind = iota
	// KindCompound means the query split into brand and product parts.
	KindCompound
	// KindSimple means the query is short enough to match as a single token.
	KindSimple
	// KindKeywords means the query decomposed into significant words.
	KindKeywords
)

// String returns a string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCompound:
		return "compound"
	case KindSimple:
		return "simple"
	case KindKeywords:
		return "keywords"
	default:
		return "unknown"
	}
}

// Token is one semantic search term with its role.
type Token struct {
	Text string
	Role TokenRole
}

// TokenSet is the ordered decomposition of a query. Never persisted.
type TokenSet struct {
	Kind   TokenKind
	Tokens []Token
}

// Empty reports whether the set carries no tokens.
func (ts TokenSet) Empty() bool {
	return len(ts.Tokens) == 0
}

// Full returns the full-string fallback token, or "".
func (ts TokenSet) Full() string {
	return ts.first(RoleFull)
}

// BrandPart returns the brand-part token, or "".
func (ts TokenSet) BrandPart() string {
	return ts.first(RoleBrand)
}

// ProductPart returns the product-part token, or "".
func (ts TokenSet) ProductPart() string {
	return ts.first(RoleProduct)
}

// KeywordTexts returns the generic keyword tokens in order.
func (ts TokenSet) KeywordTexts() []string {
	var out []string
	for _, t := range ts.Tokens {
		if t.Role == RoleKeyword {
			out = append(out, t.Text)
		}
	}
	return out
}

func (ts TokenSet) first(role TokenRole) string {
	for _, t := range ts.Tokens {
		if t.Role == role {
			return t.Text
		}
	}
	return ""
}
