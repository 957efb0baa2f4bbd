package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/internal/ranking"
)

// sqliteDriverName is a custom driver that exposes a similarity() SQL
// function backed by the same trigram measure the scorer uses. This gives
// SQLite the same preferred fuzzy-predicate path as pg_trgm on Postgres.
const sqliteDriverName = "sqlite3_similarity"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("similarity", ranking.TrigramSimilarity, true)
		},
	})
}

// SQLiteStore implements RecallStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	logger    *zap.Logger
	threshold float64

	capOnce    sync.Once
	similarity bool
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*sqliteOptions)

type sqliteOptions struct {
	plainDriver bool
	threshold   float64
}

// WithoutSimilarity opens the database with the stock driver, without the
// similarity() function. The store then detects the missing capability and
// falls back to substring matching, same as a Postgres without pg_trgm.
func WithoutSimilarity() SQLiteOption {
	return func(o *sqliteOptions) { o.plainDriver = true }
}

// WithSimilarityThreshold sets the minimum trigram similarity used in the
// fuzzy SQL predicate.
func WithSimilarityThreshold(threshold float64) SQLiteOption {
	return func(o *sqliteOptions) { o.threshold = threshold }
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if missing.
func NewSQLiteStore(dbPath string, logger *zap.Logger, opts ...SQLiteOption) (*SQLiteStore, error) {
	options := sqliteOptions{threshold: ranking.DefaultConfig().SimilarityThreshold}
	for _, opt := range opts {
		opt(&options)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	driver := sqliteDriverName
	if options.plainDriver {
		driver = "sqlite3"
	}
	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger, threshold: options.threshold}, nil
}

func initSchema(db *sql.DB) error {
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
		recall_date TEXT,
		url TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recalls_agency ON recalls(agency);
	CREATE INDEX IF NOT EXISTS idx_recalls_recall_date ON recalls(recall_date);
	`
	_, err := db.Exec(schema)
	return err
}

// SupportsSimilarity probes for the similarity() function once per process.
// The result is write-once and safe for concurrent reads.
func (s *SQLiteStore) SupportsSimilarity(ctx context.Context) bool {
	s.capOnce.Do(func() {
		var v float64
		err := s.db.QueryRowContext(ctx, "SELECT similarity('abc', 'abc')").Scan(&v)
		s.similarity = err == nil
		if err != nil {
			s.logger.Warn("similarity function unavailable, falling back to substring matching",
				zap.Error(err))
		}
	})
	return s.similarity
}

// Search executes a query plan with filters and returns matching records,
// most recent first. An empty result is not an error.
func (s *SQLiteStore) Search(ctx context.Context, plan *models.QueryPlan, filters Filters, limit int) ([]models.RecallRecord, error) {
	if plan.Empty() {
		return nil, fmt.Errorf("query plan is empty")
	}

	var strat matchStrategy = substringMatch{}
	if s.SupportsSimilarity(ctx) {
		strat = trigramMatch{threshold: strconv.FormatFloat(s.threshold, 'f', -1, 64)}
	}

	var args []any
	placeholder := func() string { return "?" }
	where := buildPlanSQL(plan, strat, placeholder, &args)

	if len(filters.Agencies) > 0 {
		marks := strings.Repeat("?,", len(filters.Agencies))
		where += " AND agency IN (" + marks[:len(marks)-1] + ")"
		for _, a := range filters.Agencies {
			args = append(args, a)
		}
	}
	if filters.DateFrom != nil {
		where += " AND recall_date >= ?"
		args = append(args, filters.DateFrom.Format("2006-01-02"))
	}
	if filters.DateTo != nil {
		where += " AND recall_date <= ?"
		args = append(args, filters.DateTo.Format("2006-01-02"))
	}

	query := `SELECT id, agency, product_name, brand, manufacturer, description,
		hazard, recall_reason, recall_date, url
		FROM recalls WHERE ` + where + `
		ORDER BY recall_date DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search recalls: %w", err)
	}
	defer rows.Close()

	var records []models.RecallRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns a record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.RecallRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, agency, product_name, brand,
		manufacturer, description, hazard, recall_reason, recall_date, url
		FROM recalls WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recall not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert upserts the given records in a single transaction.
func (s *SQLiteStore) Insert(ctx context.Context, records []models.RecallRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO recalls
		(id, agency, product_name, brand, manufacturer, description, hazard, recall_reason, recall_date, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var date any
		if rec.RecallDate != nil {
			date = rec.RecallDate.Format("2006-01-02")
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Agency, rec.ProductName, rec.Brand,
			rec.Manufacturer, rec.Description, rec.Hazard, rec.RecallReason, date, rec.URL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert recall %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored recall records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recalls").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.RecallRecord, error) {
	var (
		rec        models.RecallRecord
		product    sql.NullString
		brand      sql.NullString
		maker      sql.NullString
		desc       sql.NullString
		hazard     sql.NullString
		reason     sql.NullString
		recallDate sql.NullString
		url        sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Agency, &product, &brand, &maker, &desc,
		&hazard, &reason, &recallDate, &url); err != nil {
		return rec, err
	}
	rec.ProductName = product.String
	rec.Brand = brand.String
	rec.Manufacturer = maker.String
	rec.Description = desc.String
	rec.Hazard = hazard.String
	rec.RecallReason = reason.String
	rec.URL = url.String
	if recallDate.Valid && recallDate.String != "" {
		if t, err := time.Parse("2006-01-02", recallDate.String); err == nil {
			rec.RecallDate = &t
		}
	}
	return rec, nil
}
