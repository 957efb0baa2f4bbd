package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/metrics"
	"github.com/recallwatch/recallsearch/internal/models"
)

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchParams(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runSearch(w, r, query)
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, &query)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query *models.SearchQuery) {
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ObserveSearchResults(len(response.Results))
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetRecall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "recall not found")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count recalls failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"recalls":            count,
		"similarity_enabled": s.store.SupportsSimilarity(r.Context()),
		"config": map[string]interface{}{
			"driver":        s.config.Storage.Driver,
			"default_limit": s.config.Search.DefaultLimit,
			"max_limit":     s.config.Search.MaxLimit,
		},
	})
}

// parseSearchParams builds a SearchQuery from GET query parameters.
// "product" is accepted as an alias for "query"; keywords and agencies are
// comma-separated.
func parseSearchParams(r *http.Request) (*models.SearchQuery, error) {
	params := r.URL.Query()

	query := &models.SearchQuery{
		Query:    strings.TrimSpace(params.Get("query")),
		Keywords: splitList(params.Get("keywords")),
		Agencies: splitList(params.Get("agencies")),
	}
	if query.Query == "" {
		query.Query = strings.TrimSpace(params.Get("product"))
	}

	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		query.Limit = limit
	}

	var err error
	if query.DateFrom, err = parseDateParam(params.Get("date_from")); err != nil {
		return nil, errors.New("date_from must be an ISO date (YYYY-MM-DD)")
	}
	if query.DateTo, err = parseDateParam(params.Get("date_to")); err != nil {
		return nil, errors.New("date_to must be an ISO date (YYYY-MM-DD)")
	}

	return query, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
