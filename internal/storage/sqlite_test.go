package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/recallwatch/recallsearch/internal/models"
	"github.com/recallwatch/recallsearch/internal/search"
	"github.com/recallwatch/recallsearch/internal/storage"
)

func newTestStore(t *testing.T, opts ...storage.SQLiteOption) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "recalls.db"), nil, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedRecords(t *testing.T, store *storage.SQLiteStore, records []models.RecallRecord) {
	t.Helper()
	if err := store.Insert(context.Background(), records); err != nil {
		t.Fatal(err)
	}
}

func planFor(t *testing.T, query string) *models.QueryPlan {
	t.Helper()
	plan, err := search.BuildPlan(search.Tokenize(query))
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func mustDate(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testDataset() []models.RecallRecord {
	return []models.RecallRecord{
		{
			ID:           "FDA-2020-001",
			Agency:       "FDA",
			ProductName:  "Children's Triacting Night Time Cold & Cough with PE",
			Brand:        "P&L Developments, LLC",
			Manufacturer: "P&L Developments",
			Hazard:       "Failure of child-resistant packaging",
			RecallDate:   mustDate("2020-03-10"),
		},
		{
			ID:          "CPSC-2023-042",
			Agency:      "CPSC",
			ProductName: "Jogging Stroller",
			Brand:       "TrailRunner",
			Hazard:      "Front wheel can detach, posing a fall hazard",
			RecallDate:  mustDate("2023-07-01"),
		},
		{
			ID:          "FDA-2023-077",
			Agency:      "FDA",
			ProductName: "Stroller Snack Tray",
			Description: "Plastic tray sold with infant strollers",
			RecallDate:  mustDate("2023-01-15"),
		},
		{
			ID:          "CPSC-2019-008",
			Agency:      "CPSC",
			ProductName: "Toy Blender Set",
			Hazard:      "Small parts, choking hazard",
			RecallDate:  mustDate("2019-11-20"),
		},
	}
}

func TestSQLiteStore_InsertGetCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}

	rec, err := store.Get(ctx, "CPSC-2023-042")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ProductName != "Jogging Stroller" || rec.Brand != "TrailRunner" {
		t.Errorf("Get returned %+v", rec)
	}
	if rec.RecallDate == nil || rec.RecallDate.Format("2006-01-02") != "2023-07-01" {
		t.Errorf("RecallDate = %v", rec.RecallDate)
	}

	if _, err := store.Get(ctx, "nope"); err == nil {
		t.Error("Get(missing) should error")
	}
}

func TestSQLiteStore_InsertIsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())
	seedRecords(t, store, []models.RecallRecord{
		{ID: "CPSC-2023-042", Agency: "CPSC", ProductName: "Jogging Stroller v2"},
	})

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count after upsert = %d, want 4", n)
	}
	rec, err := store.Get(ctx, "CPSC-2023-042")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ProductName != "Jogging Stroller v2" {
		t.Errorf("ProductName = %q, want updated value", rec.ProductName)
	}
}

// The decomposed branch of a compound plan must find a record where the brand
// and product live in different columns and no single column contains the
// full query string.
func TestSQLiteStore_CompoundDecomposition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())

	query := "P&L Developments, LLC - Children's Triacting Night Time Cold & Cough with PE"
	records, err := store.Search(ctx, planFor(t, query), storage.Filters{}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !containsID(records, "FDA-2020-001") {
		t.Errorf("compound query did not find FDA-2020-001; got %v", ids(records))
	}
}

func TestSQLiteStore_SimpleSubstring(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())

	records, err := store.Search(ctx, planFor(t, "stroller"), storage.Filters{}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !containsID(records, "CPSC-2023-042") || !containsID(records, "FDA-2023-077") {
		t.Errorf("substring query missed stroller records; got %v", ids(records))
	}
	if containsID(records, "CPSC-2019-008") {
		t.Errorf("unrelated record matched; got %v", ids(records))
	}
}

func TestSQLiteStore_AgencyFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())

	records, err := store.Search(ctx, planFor(t, "stroller"),
		storage.Filters{Agencies: []string{"CPSC"}}, 50)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if rec.Agency != "CPSC" {
			t.Errorf("agency filter leaked %s record %s", rec.Agency, rec.ID)
		}
	}
	if !containsID(records, "CPSC-2023-042") {
		t.Errorf("CPSC stroller record missing; got %v", ids(records))
	}
}

func TestSQLiteStore_DateFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())

	records, err := store.Search(ctx, planFor(t, "stroller"),
		storage.Filters{DateFrom: mustDate("2023-06-01")}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !containsID(records, "CPSC-2023-042") || containsID(records, "FDA-2023-077") {
		t.Errorf("date_from filter wrong; got %v", ids(records))
	}

	records, err = store.Search(ctx, planFor(t, "stroller"),
		storage.Filters{DateTo: mustDate("2023-06-01")}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if containsID(records, "CPSC-2023-042") || !containsID(records, "FDA-2023-077") {
		t.Errorf("date_to filter wrong; got %v", ids(records))
	}
}

func TestSQLiteStore_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRecords(t, store, testDataset())

	records, err := store.Search(ctx, planFor(t, "stroller"), storage.Filters{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestSQLiteStore_SimilarityCapability(t *testing.T) {
	ctx := context.Background()

	withSim := newTestStore(t)
	if !withSim.SupportsSimilarity(ctx) {
		t.Error("custom driver should report similarity support")
	}

	withoutSim := newTestStore(t, storage.WithoutSimilarity())
	if withoutSim.SupportsSimilarity(ctx) {
		t.Error("stock driver should not report similarity support")
	}
}

// With and without the similarity function, exact substring queries must
// return the same records: the fuzzy predicate only widens the candidate set.
func TestSQLiteStore_FallbackFindsExactMatches(t *testing.T) {
	ctx := context.Background()
	queries := []string{
		"stroller",
		"Jogging Stroller",
		"P&L Developments, LLC - Children's Triacting Night Time Cold & Cough with PE",
	}

	fuzzy := newTestStore(t)
	plain := newTestStore(t, storage.WithoutSimilarity())
	seedRecords(t, fuzzy, testDataset())
	seedRecords(t, plain, testDataset())

	for _, q := range queries {
		fuzzyRecords, err := fuzzy.Search(ctx, planFor(t, q), storage.Filters{}, 50)
		if err != nil {
			t.Fatal(err)
		}
		plainRecords, err := plain.Search(ctx, planFor(t, q), storage.Filters{}, 50)
		if err != nil {
			t.Fatal(err)
		}
		for _, rec := range plainRecords {
			if !containsID(fuzzyRecords, rec.ID) {
				t.Errorf("query %q: %s found without similarity but not with it", q, rec.ID)
			}
		}
		if len(plainRecords) == 0 {
			t.Errorf("query %q: substring fallback found nothing", q)
		}
	}
}

func containsID(records []models.RecallRecord, id string) bool {
	for _, rec := range records {
		if rec.ID == id {
			return true
		}
	}
	return false
}

func ids(records []models.RecallRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID)
	}
	return out
}
