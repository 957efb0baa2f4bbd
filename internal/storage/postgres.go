package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/internal/ranking"
)

// PostgresStore implements RecallStore on Postgres. When the pg_trgm
// extension is installed the similarity() predicate and trigram indexes are
// used; otherwise the store degrades to substring matching.
type PostgresStore struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	threshold float64
	disabled  bool

	capOnce    sync.Once
	similarity bool
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithoutTrigram forces substring matching even when pg_trgm is installed.
func WithoutTrigram() PostgresOption {
	return func(s *PostgresStore) { s.disabled = true }
}

// NewPostgresStore connects to dsn, ensures the schema, and attempts to
// enable pg_trgm (best effort; lacking the privilege is not an error).
func NewPostgresStore(ctx context.Context, dsn string, threshold float64, logger *zap.Logger, opts ...PostgresOption) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = ranking.DefaultConfig().SimilarityThreshold
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger, threshold: threshold}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recalls (
		id TEXT PRIMARY KEY,
		agency TEXT NOT NULL,
		product_name TEXT,
		brand TEXT,
		manufacturer TEXT,
		description TEXT,
		hazard TEXT,
		recall_reason TEXT,
		recall_date DATE,
		url TEXT,
		created_at TIMESTAMPTZ DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_recalls_agency ON recalls(agency);
	CREATE INDEX IF NOT EXISTS idx_recalls_recall_date ON recalls(recall_date);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return err
	}

	// Best effort: the extension and trigram indexes need elevated
	// privileges on managed databases.
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS pg_trgm"); err != nil {
		s.logger.Debug("could not create pg_trgm extension", zap.Error(err))
		return nil
	}
	trgmIndexes := `
	CREATE INDEX IF NOT EXISTS idx_recalls_product_trgm ON recalls USING gin (product_name gin_trgm_ops);
	CREATE INDEX IF NOT EXISTS idx_recalls_brand_trgm ON recalls USING gin (brand gin_trgm_ops);
	`
	if _, err := s.pool.Exec(ctx, trgmIndexes); err != nil {
		s.logger.Debug("could not create trigram indexes", zap.Error(err))
	}
	return nil
}

// SupportsSimilarity probes for pg_trgm once per process.
func (s *PostgresStore) SupportsSimilarity(ctx context.Context) bool {
	if s.disabled {
		return false
	}
	s.capOnce.Do(func() {
		var v float64
		err := s.pool.QueryRow(ctx, "SELECT similarity('abc', 'abc')").Scan(&v)
		s.similarity = err == nil
		if err != nil {
			s.logger.Warn("pg_trgm unavailable, falling back to substring matching",
				zap.Error(err))
		}
	})
	return s.similarity
}

// Search executes a query plan with filters and returns matching records,
// most recent first.
func (s *PostgresStore) Search(ctx context.Context, plan *models.QueryPlan, filters Filters, limit int) ([]models.RecallRecord, error) {
	if plan.Empty() {
		return nil, fmt.Errorf("query plan is empty")
	}

	var strat matchStrategy = substringMatch{}
	if s.SupportsSimilarity(ctx) {
		strat = trigramMatch{threshold: strconv.FormatFloat(s.threshold, 'f', -1, 64)}
	}

	var args []any
	argPos := 0
	placeholder := func() string {
		argPos++
		return "$" + strconv.Itoa(argPos)
	}
	where := buildPlanSQL(plan, strat, placeholder, &args)

	if len(filters.Agencies) > 0 {
		where += " AND agency = ANY(" + placeholder() + ")"
		args = append(args, filters.Agencies)
	}
	if filters.DateFrom != nil {
		where += " AND recall_date >= " + placeholder()
		args = append(args, *filters.DateFrom)
	}
	if filters.DateTo != nil {
		where += " AND recall_date <= " + placeholder()
		args = append(args, *filters.DateTo)
	}

	query := `SELECT id, agency, coalesce(product_name, ''), coalesce(brand, ''),
		coalesce(manufacturer, ''), coalesce(description, ''), coalesce(hazard, ''),
		coalesce(recall_reason, ''), recall_date, coalesce(url, '')
		FROM recalls WHERE ` + where + `
		ORDER BY recall_date DESC NULLS LAST LIMIT ` + placeholder()
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search recalls: %w", err)
	}
	defer rows.Close()

	var records []models.RecallRecord
	for rows.Next() {
		var rec models.RecallRecord
		if err := rows.Scan(&rec.ID, &rec.Agency, &rec.ProductName, &rec.Brand,
			&rec.Manufacturer, &rec.Description, &rec.Hazard, &rec.RecallReason,
			&rec.RecallDate, &rec.URL); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns a record by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.RecallRecord, error) {
	var rec models.RecallRecord
	err := s.pool.QueryRow(ctx, `SELECT id, agency, coalesce(product_name, ''),
		coalesce(brand, ''), coalesce(manufacturer, ''), coalesce(description, ''),
		coalesce(hazard, ''), coalesce(recall_reason, ''), recall_date, coalesce(url, '')
		FROM recalls WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Agency, &rec.ProductName, &rec.Brand, &rec.Manufacturer,
			&rec.Description, &rec.Hazard, &rec.RecallReason, &rec.RecallDate, &rec.URL)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("recall not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert upserts the given records in one batch.
func (s *PostgresStore) Insert(ctx context.Context, records []models.RecallRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`INSERT INTO recalls
			(id, agency, product_name, brand, manufacturer, description, hazard, recall_reason, recall_date, url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				agency = EXCLUDED.agency,
				product_name = EXCLUDED.product_name,
				brand = EXCLUDED.brand,
				manufacturer = EXCLUDED.manufacturer,
				description = EXCLUDED.description,
				hazard = EXCLUDED.hazard,
				recall_reason = EXCLUDED.recall_reason,
				recall_date = EXCLUDED.recall_date,
				url = EXCLUDED.url`,
			rec.ID, rec.Agency, rec.ProductName, rec.Brand, rec.Manufacturer,
			rec.Description, rec.Hazard, rec.RecallReason, rec.RecallDate, rec.URL)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert recalls: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored recall records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM recalls").Scan(&n)
	return n, err
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
