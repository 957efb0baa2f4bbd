// Package ingest loads recall datasets from agency CSV and XLSX exports
// into the recall store.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/internal/storage"
)

// batchSize bounds how many records are inserted per store call.
const batchSize = 500

// dateLayouts are the formats seen across agency exports.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02T15:04:05Z07:00",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Loader reads recall datasets and writes them to the store.
type Loader struct {
	store  storage.RecallStore
	logger *zap.Logger
}

// NewLoader creates a loader. A nil logger is replaced with a no-op.
func NewLoader(store storage.RecallStore, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: store, logger: logger}
}

// LoadFile loads a .csv or .xlsx dataset and returns the number of records
// inserted. Rows missing both a product name and a brand are skipped.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		return l.LoadCSV(ctx, f)
	case ".xlsx":
		return l.loadXLSX(ctx, path)
	default:
		return 0, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
}

// LoadCSV reads a header-first CSV stream and inserts its rows.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	cols := columnIndex(header)

	total := 0
	var batch []models.RecallRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read csv row: %w", err)
		}
		rec, ok := l.rowToRecord(cols, row)
		if !ok {
			continue
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := l.store.Insert(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.store.Insert(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

// loadXLSX reads the first sheet of an XLSX workbook, header row first.
func (l *Loader) loadXLSX(ctx context.Context, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	cols := columnIndex(rows[0])
	total := 0
	var batch []models.RecallRecord
	for _, row := range rows[1:] {
		rec, ok := l.rowToRecord(cols, row)
		if !ok {
			continue
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := l.store.Insert(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.store.Insert(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

// rowToRecord maps a dataset row to a RecallRecord. Rows without any
// product or brand text are not useful match targets and are skipped.
func (l *Loader) rowToRecord(cols map[string]int, row []string) (models.RecallRecord, bool) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := models.RecallRecord{
		ID:           get("id"),
		Agency:       strings.ToUpper(get("agency")),
		ProductName:  get("product_name"),
		Brand:        get("brand"),
		Manufacturer: get("manufacturer"),
		Description:  get("description"),
		Hazard:       get("hazard"),
		RecallReason: get("recall_reason"),
		URL:          get("url"),
	}
	if rec.ProductName == "" && rec.Brand == "" {
		return rec, false
	}
	if rec.Agency == "" {
		rec.Agency = "UNKNOWN"
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if raw := get("recall_date"); raw != "" {
		if t, ok := parseDate(raw); ok {
			rec.RecallDate = &t
		} else {
			l.logger.Debug("unparseable recall date", zap.String("id", rec.ID), zap.String("date", raw))
		}
	}
	return rec, true
}

// columnIndex maps normalized header names to their positions. Common
// aliases from different agency exports are folded to canonical names.
func columnIndex(header []string) map[string]int {
	aliases := map[string]string{
		"recall_id":      "id",
		"recall_number":  "id",
		"number":         "id",
		"source":         "agency",
		"source_agency":  "agency",
		"product":        "product_name",
		"name":           "product_name",
		"brand_name":     "brand",
		"company":        "manufacturer",
		"recalling_firm": "manufacturer",
		"reason":         "recall_reason",
		"date":           "recall_date",
		"recalldate":     "recall_date",
		"link":           "url",
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		if _, exists := cols[key]; !exists {
			cols[key] = i
		}
	}
	return cols
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
