package model

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/database"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/shopspring/decimal"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []models.Record {
	return []models.Record{
		{
			ReferenceCode:    "126610LN",
			Collection:       "Submariner",
			Currency:         "USD",
			Price:            decimal.NewNullDecimal(decimal.NewFromInt(10000)),
			LifeSpanDate:     time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
			RawLifeSpanDate:  "2023-08-01",
			Extra:            map[string]string{"brand": "Rolex"},
			OriginalPrice:    decimal.NewNullDecimal(decimal.NewFromInt(10000)),
			OriginalCurrency: "USD",
			ConversionMethod: models.ConversionMethodDirect,
			PriceEUR:         decimal.NewNullDecimal(decimal.NewFromInt(9300)),
			ConversionPath:   models.PathFallback,
			Year:             2023,
			Quarter:          3,
		},
		{
			ReferenceCode:    "5711/1A",
			Collection:       "Nautilus",
			Currency:         "EUR",
			Price:            decimal.NewNullDecimal(decimal.RequireFromString("95000.50")),
			LifeSpanDate:     time.Date(2022, 2, 3, 0, 0, 0, 0, time.UTC),
			RawLifeSpanDate:  "2022-02-03",
			OriginalPrice:    decimal.NewNullDecimal(decimal.RequireFromString("95000.50")),
			OriginalCurrency: "EUR",
			ConversionMethod: models.ConversionMethodDirect,
			PriceEUR:         decimal.NewNullDecimal(decimal.RequireFromString("95000.50")),
			ConversionPath:   models.PathEUR,
			Year:             2022,
			Quarter:          1,
		},
	}
}

func TestCleaningRun_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	run := &CleaningRun{
		ID:          "run-1",
		Subject:     "analyst",
		SourceName:  "watches.csv",
		Format:      "csv",
		InitialRows: 5,
		FinalRows:   2,
		Columns:     []string{"reference_code", "collection", "currency", "price", "life_span_date", "brand"},
		Stats: models.CleaningStats{
			InitialRows:    5,
			FinalRows:      2,
			RemovedByStage: []models.StageCount{{Stage: models.StageCollectionURL, Removed: 3}},
			Currencies:     []models.CurrencyStats{{Currency: "USD", Total: 1, Converted: 1, ViaFallback: 1}},
		},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC),
	}
	if err := run.InsertRun(ctx, db); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if err := InsertRecords(ctx, db, run.ID, sampleRecords()); err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}

	got, err := GetRunByID(ctx, db, "run-1")
	if err != nil {
		t.Fatalf("GetRunByID: %v", err)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
	got.CreatedAt = run.CreatedAt
	if !reflect.DeepEqual(got, run) {
		t.Errorf("run = %+v\nwant %+v", got, run)
	}

	records, err := GetRunRecords(ctx, db, "run-1")
	if err != nil {
		t.Fatalf("GetRunRecords: %v", err)
	}
	want := sampleRecords()
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		g, w := records[i], want[i]
		if g.ReferenceCode != w.ReferenceCode || g.Currency != w.Currency || g.ConversionPath != w.ConversionPath {
			t.Errorf("record %d identity = %+v", i, g)
		}
		if !g.PriceEUR.Decimal.Equal(w.PriceEUR.Decimal) || !g.Price.Decimal.Equal(w.Price.Decimal) ||
			!g.OriginalPrice.Decimal.Equal(w.OriginalPrice.Decimal) {
			t.Errorf("record %d prices = %s %s %s", i, g.Price.Decimal, g.OriginalPrice.Decimal, g.PriceEUR.Decimal)
		}
		if !g.LifeSpanDate.Equal(w.LifeSpanDate) || g.Year != w.Year || g.Quarter != w.Quarter {
			t.Errorf("record %d dates = %v %d Q%d", i, g.LifeSpanDate, g.Year, g.Quarter)
		}
		if !reflect.DeepEqual(g.Extra, w.Extra) {
			t.Errorf("record %d extra = %v, want %v", i, g.Extra, w.Extra)
		}
	}
}

func TestGetRunByID_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := GetRunByID(context.Background(), db, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := &CleaningRun{ID: id, SourceName: id + ".csv", Format: "csv", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := run.InsertRun(ctx, db); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := ListRuns(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("ListRuns = %+v, want c, b", runs)
	}
}

func TestInsertRecords_InTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	run := &CleaningRun{ID: "tx-run", SourceName: "x.csv", Format: "csv"}
	if err := run.InsertRun(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if err := InsertRecords(ctx, tx, run.ID, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	if _, err := GetRunByID(ctx, db, "tx-run"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("rolled back run still visible: %v", err)
	}
}
