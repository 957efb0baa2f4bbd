package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/recallwatch/recallsearch/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "recalls.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoader_LoadCSV(t *testing.T) {
	csvData := `id,agency,product_name,brand,manufacturer,description,hazard,recall_reason,recall_date,url
FDA-1,fda,Wonder Bottle,Acme,Acme Corp,500ml bottle,Choking hazard,Loose cap,2024-06-15,https://example.com/1
,CPSC,Jogging Stroller,TrailRunner,,,Wheel detaches,,07/01/2023,
X-3,,,,,no product or brand here,,,,,
FDA-4,FDA,Night Time Cough Syrup,,,,,,"not a date",
`
	store := newTestStore(t)
	loader := NewLoader(store, nil)
	ctx := context.Background()

	n, err := loader.LoadCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("loaded %d records, want 3 (row without product and brand skipped)", n)
	}

	rec, err := store.Get(ctx, "FDA-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Agency != "FDA" {
		t.Errorf("Agency = %q, want uppercased FDA", rec.Agency)
	}
	if rec.RecallDate == nil || rec.RecallDate.Format("2006-01-02") != "2024-06-15" {
		t.Errorf("RecallDate = %v", rec.RecallDate)
	}

	rec, err = store.Get(ctx, "FDA-4")
	if err != nil {
		t.Fatal(err)
	}
	if rec.RecallDate != nil {
		t.Errorf("unparseable date should leave RecallDate nil, got %v", rec.RecallDate)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestLoader_GeneratesIDWhenMissing(t *testing.T) {
	csvData := `id,agency,product_name
,CPSC,Stroller A
,CPSC,Stroller B
`
	store := newTestStore(t)
	loader := NewLoader(store, nil)
	ctx := context.Background()

	n, err := loader.LoadCSV(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("loaded %d, want 2", n)
	}
	// Generated IDs must be distinct or the second row would overwrite the first.
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestLoader_HeaderAliases(t *testing.T) {
	csvData := `Recall Number,Source,Product,Brand Name,Recalling Firm,Reason,Date,Link
R-9,cpsc,Toy Oven,BakeFun,BakeFun Industries,Overheating,2022-02-02,https://example.com/9
`
	store := newTestStore(t)
	loader := NewLoader(store, nil)
	ctx := context.Background()

	if _, err := loader.LoadCSV(ctx, strings.NewReader(csvData)); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Get(ctx, "R-9")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Agency != "CPSC" {
		t.Errorf("Agency = %q", rec.Agency)
	}
	if rec.ProductName != "Toy Oven" || rec.Brand != "BakeFun" {
		t.Errorf("product/brand = %q/%q", rec.ProductName, rec.Brand)
	}
	if rec.Manufacturer != "BakeFun Industries" {
		t.Errorf("Manufacturer = %q", rec.Manufacturer)
	}
	if rec.RecallReason != "Overheating" {
		t.Errorf("RecallReason = %q", rec.RecallReason)
	}
	if rec.URL != "https://example.com/9" {
		t.Errorf("URL = %q", rec.URL)
	}
}

func TestLoader_LoadFileXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recalls.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"id", "agency", "product_name", "brand", "hazard", "recall_date"},
		{"CPSC-77", "CPSC", "Bunk Bed", "SleepWell", "Entrapment hazard", "2023-09-01"},
		{"", "", "", "", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	store := newTestStore(t)
	loader := NewLoader(store, nil)
	ctx := context.Background()

	n, err := loader.LoadFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("loaded %d, want 1", n)
	}

	rec, err := store.Get(ctx, "CPSC-77")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ProductName != "Bunk Bed" || rec.Hazard != "Entrapment hazard" {
		t.Errorf("record = %+v", rec)
	}
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	loader := NewLoader(newTestStore(t), nil)
	if _, err := loader.LoadFile(context.Background(), "recalls.json"); err == nil {
		t.Error("LoadFile(.json) should error")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-06-15", "2024-06-15", true},
		{"06/15/2024", "2024-06-15", true},
		{"6/5/2024", "2024-06-05", true},
		{"January 2, 2024", "2024-01-02", true},
		{"Jan 2, 2024", "2024-01-02", true},
		{"yesterday", "", false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("parseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}
