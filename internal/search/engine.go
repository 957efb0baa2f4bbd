package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/config"
	"github.com/recallwatch/recallsearch/internal/format"
	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/internal/ranking"
	"github.com/recallwatch/recallsearch/internal/storage"
)

// Engine runs the search pipeline: tokenize, build plan, retrieve, score,
// format. One call is one synchronous pipeline execution; concurrent calls
// are independent and share only the read-only store.
type Engine struct {
	store      storage.RecallStore
	config     *config.SearchConfig
	rankingCfg *ranking.Config
	formatter  *format.Formatter
	logger     *zap.Logger
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(store storage.RecallStore, cfg *config.SearchConfig, rankingCfg *ranking.Config, logger *zap.Logger) *Engine {
	if rankingCfg == nil {
		rankingCfg = ranking.DefaultConfig()
	}
	rankingCfg.ApplyDefaults()
	return &Engine{
		store:      store,
		config:     cfg,
		rankingCfg: rankingCfg,
		formatter:  format.NewFormatter(logger),
		logger:     logger,
	}
}

// Search executes one search request end to end. Invalid queries are
// rejected before any store call; an empty result set is a normal response,
// not an error.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()

	if err := q.Validate(); err != nil {
		return nil, err
	}
	e.clampLimit(q)

	tokens := e.buildTokens(q)
	if tokens.Empty() {
		return nil, models.ErrEmptyQuery
	}

	plan, err := BuildPlan(tokens)
	if err != nil {
		return nil, fmt.Errorf("build query plan: %w", err)
	}

	filters := storage.Filters{
		Agencies: q.Agencies,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	}

	retrieveCtx, cancel := context.WithTimeout(ctx, e.storeTimeout())
	defer cancel()
	candidates, err := e.store.Search(retrieveCtx, plan, filters, e.fetchLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	// Caller gone: skip scoring and formatting of fetched rows.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	evaluator := ranking.NewEvaluator(e.rankingCfg, e.store.SupportsSimilarity(ctx))
	scorer := ranking.NewScorer(e.rankingCfg, evaluator)
	scored := scorer.ScoreAndSort(candidates, tokens)

	page := scored
	if len(page) > q.Limit {
		page = page[:q.Limit]
	}

	response := &models.SearchResponse{
		Results:   e.formatter.Format(page),
		Total:     len(scored),
		Query:     q.EffectiveText(),
		QueryTime: time.Since(start).Milliseconds(),
	}
	e.logger.Debug("search completed",
		zap.String("query", response.Query),
		zap.String("token_kind", tokens.Kind.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(response.Results)),
	)
	return response, nil
}

// buildTokens derives the token set from raw text when present, otherwise
// from the explicit keyword list. Explicit keywords given alongside raw text
// are appended as extra keyword tokens; a short query with appended keywords
// is promoted to the keyword interpretation so the plan includes them.
func (e *Engine) buildTokens(q *models.SearchQuery) models.TokenSet {
	if strings.TrimSpace(q.Query) == "" {
		return TokenizeKeywords(q.Keywords)
	}

	ts := Tokenize(q.Query)
	if len(q.Keywords) == 0 || ts.Empty() {
		return ts
	}

	existing := make(map[string]bool, len(ts.Tokens))
	for _, t := range ts.Tokens {
		existing[strings.ToLower(t.Text)] = true
	}
	added := false
	for _, kw := range q.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || existing[strings.ToLower(kw)] {
			continue
		}
		existing[strings.ToLower(kw)] = true
		ts.Tokens = append(ts.Tokens, models.Token{Text: kw, Role: models.RoleKeyword})
		added = true
	}
	if added && ts.Kind == models.KindSimple {
		ts.Kind = models.KindKeywords
	}
	return ts
}

func (e *Engine) clampLimit(q *models.SearchQuery) {
	if q.Limit <= 0 {
		q.Limit = e.config.DefaultLimit
	}
	if q.Limit > e.config.MaxLimit {
		q.Limit = e.config.MaxLimit
	}
}

// fetchLimit over-fetches so exact matches are not starved by an over-eager
// LIMIT before re-ranking.
func (e *Engine) fetchLimit(limit int) int {
	fetch := limit * e.config.OverfetchMultiplier
	if fetch > e.config.OverfetchCap {
		fetch = e.config.OverfetchCap
	}
	if fetch < limit {
		fetch = limit
	}
	return fetch
}

func (e *Engine) storeTimeout() time.Duration {
	if e.config.StoreTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.config.StoreTimeoutSeconds) * time.Second
}
