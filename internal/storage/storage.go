// Package storage defines the persistence interface for recall records and
// its SQLite and Postgres implementations.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/recallwatch/recallsearch/internal/models"
)

// Filters are the hard constraints applied in addition to the text plan.
type Filters struct {
	Agencies []string
	DateFrom *time.Time
	DateTo   *time.Time
}

// RecallStore defines recall record persistence and retrieval operations.
// Search returns an empty slice, not an error, when nothing matches.
type RecallStore interface {
	Search(ctx context.Context, plan *models.QueryPlan, filters Filters, limit int) ([]models.RecallRecord, error)
	Get(ctx context.Context, id string) (*models.RecallRecord, error)
	Insert(ctx context.Context, records []models.RecallRecord) error
	Count(ctx context.Context) (int64, error)

	// SupportsSimilarity reports whether the backend provides a trigram
	// similarity predicate. Detected once per process and safe for
	// concurrent reads.
	SupportsSimilarity(ctx context.Context) bool

	Close() error
}

// matchStrategy renders one (field, token) predicate into backend SQL.
// Strategies draw placeholders from nextPlaceholder and append the matching
// arguments themselves, so a predicate may reference the token more than
// once.
type matchStrategy interface {
	predicate(field models.Field, token string, nextPlaceholder func() string, args *[]any) string
}

// substringMatch is the fallback strategy: case-insensitive containment.
type substringMatch struct{}

func (substringMatch) predicate(field models.Field, token string, nextPlaceholder func() string, args *[]any) string {
	ph := nextPlaceholder()
	*args = append(*args, token)
	return "lower(coalesce(" + string(field) + ", '')) LIKE '%' || lower(" + ph + ") || '%'"
}

// trigramMatch uses the backend's similarity() function, with containment
// kept as a disjunct so exact substrings never regress below the threshold.
type trigramMatch struct {
	threshold string // rendered numeric literal, e.g. "0.15"
}

func (m trigramMatch) predicate(field models.Field, token string, nextPlaceholder func() string, args *[]any) string {
	col := "coalesce(" + string(field) + ", '')"
	likePh := nextPlaceholder()
	*args = append(*args, token)
	simPh := nextPlaceholder()
	*args = append(*args, token)
	return "(lower(" + col + ") LIKE '%' || lower(" + likePh + ") || '%'" +
		" OR similarity(lower(" + col + "), lower(" + simPh + ")) > " + m.threshold + ")"
}

// buildPlanSQL renders a QueryPlan into a SQL condition. Token arguments are
// appended to args; nextPlaceholder supplies backend-specific placeholders
// ("?" for SQLite, "$n" for Postgres).
func buildPlanSQL(plan *models.QueryPlan, strat matchStrategy, nextPlaceholder func() string, args *[]any) string {
	var branches []string
	for _, branch := range plan.Branches {
		var groups []string
		for _, group := range branch.Groups {
			var preds []string
			for _, p := range group.Predicates {
				preds = append(preds, strat.predicate(p.Field, p.Token, nextPlaceholder, args))
			}
			if len(preds) > 0 {
				groups = append(groups, "("+strings.Join(preds, " OR ")+")")
			}
		}
		if len(groups) > 0 {
			branches = append(branches, "("+strings.Join(groups, " AND ")+")")
		}
	}
	if len(branches) == 0 {
		return ""
	}
	return "(" + strings.Join(branches, " OR ") + ")"
}
