package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/recallwatch/recallsearch/internal/models"
)

// Scorer assigns each candidate a composite relevance score and produces a
// deterministic total ordering.
type Scorer struct {
	config    *Config
	evaluator *Evaluator
}

// NewScorer creates a scorer. The evaluator decides whether fuzzy similarity
// participates in scoring, matching the retrieval capability.
func NewScorer(cfg *Config, evaluator *Evaluator) *Scorer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	return &Scorer{config: cfg, evaluator: evaluator}
}

// ScoreAndSort scores every candidate against the token set and returns them
// ordered by score descending, recall date descending, then ID ascending.
// Candidates are never dropped here; truncation to the page size happens
// after sorting, in the caller.
func (s *Scorer) ScoreAndSort(candidates []models.RecallRecord, tokens models.TokenSet) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, rec := range candidates {
		score, matched := s.scoreRecord(&rec, tokens)
		scored = append(scored, models.ScoredCandidate{
			Record:        rec,
			Score:         score,
			MatchedFields: matched,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ad, bd := dateOrZero(a.Record.RecallDate), dateOrZero(b.Record.RecallDate)
		if !ad.Equal(bd) {
			return ad.After(bd)
		}
		return a.Record.ID < b.Record.ID
	})

	return scored
}

// scoreRecord computes the weighted textual score plus the recency and
// agency bonuses for one record.
func (s *Scorer) scoreRecord(rec *models.RecallRecord, tokens models.TokenSet) (float64, []models.Field) {
	var (
		total   float64
		matched []models.Field
		seen    = make(map[models.Field]bool)
	)

	for _, tok := range tokens.Tokens {
		boost := 1.0
		if tok.Role == models.RoleFull {
			boost = s.config.FullMatchBoost
		}
		for _, field := range models.SearchedFields {
			sim := s.evaluator.Score(tok.Text, rec.FieldValue(field))
			if sim == 0 {
				continue
			}
			total += boost * s.fieldWeight(field) * sim
			if !seen[field] {
				seen[field] = true
				matched = append(matched, field)
			}
		}
	}

	if total > 0 {
		total += s.recencyBonus(rec.RecallDate)
		total += s.agencyBonus(rec.Agency)
	}
	return total, matched
}

func (s *Scorer) fieldWeight(f models.Field) float64 {
	switch f {
	case models.FieldProductName:
		return s.config.ProductNameWeight
	case models.FieldBrand:
		return s.config.BrandWeight
	case models.FieldManufacturer:
		return s.config.ManufacturerWeight
	case models.FieldDescription:
		return s.config.DescriptionWeight
	case models.FieldHazard:
		return s.config.HazardWeight
	case models.FieldRecallReason:
		return s.config.ReasonWeight
	default:
		return 0
	}
}

// recencyBonus grows monotonically toward RecencyMaxBonus as the recall date
// approaches now. Records without a date get no bonus.
func (s *Scorer) recencyBonus(date *time.Time) float64 {
	if !s.config.RecencyEnabled || date == nil {
		return 0
	}
	ageDays := time.Since(*date).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return s.config.RecencyMaxBonus * math.Exp(-ageDays/s.config.RecencyScaleDays)
}

func (s *Scorer) agencyBonus(agency string) float64 {
	for _, a := range s.config.PriorityAgencies {
		if a == agency {
			return s.config.AgencyBonus
		}
	}
	return 0
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
