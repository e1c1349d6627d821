package processors

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/shopspring/decimal"
)

type row struct {
	ref, collection, currency, price, date string
	extra                                  map[string]string
}

func makeDataset(extraCols []string, rows ...row) models.Dataset {
	ds := models.Dataset{Columns: append([]string{
		models.ColReferenceCode, models.ColCollection, models.ColCurrency, models.ColPrice, models.ColLifeSpanDate,
	}, extraCols...)}
	for _, r := range rows {
		rec := models.Record{
			ReferenceCode:   r.ref,
			Collection:      r.collection,
			Currency:        r.currency,
			RawLifeSpanDate: r.date,
			Extra:           r.extra,
		}
		if r.price != "" {
			rec.Price = price(r.price)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds
}

func newTestCleaner(p HistoricalRateProvider) *DatasetCleaner {
	return NewDatasetCleaner(NewPriceConverter(p, nil))
}

func TestClean_Pipeline(t *testing.T) {
	in := makeDataset(nil,
		row{ref: "A1", collection: "Submariner", currency: "EUR", price: "5000", date: "2023-01-15"},
		row{ref: "A2", collection: "HTTPS://shop.example/daytona", currency: "EUR", price: "5000", date: "2023-01-15"},
		row{ref: "A3", collection: "Datejust", currency: "EUR", price: "", date: "2023-01-15"},
		row{ref: "A4", collection: "Datejust", currency: "EUR", price: "0", date: "2023-01-15"},
		row{ref: "A5", collection: "Datejust", currency: "EUR", price: "-5", date: "2023-01-15"},
		row{ref: "A6", collection: "Datejust", currency: "USD", price: "10000", date: "garbage"},
		row{ref: "A7", collection: "Explorer", currency: "USD", price: "1", date: "2023-02-01"},
		row{ref: " A8 ", collection: " Explorer ", currency: " usd ", price: "10000", date: "2023-08-01"},
	)

	out, stats := newTestCleaner(failing()).Clean(context.Background(), in)

	if stats.InitialRows != 8 || stats.FinalRows != 2 || out.Len() != 2 {
		t.Fatalf("rows: initial %d final %d len %d, want 8/2/2", stats.InitialRows, stats.FinalRows, out.Len())
	}
	wantStages := []models.StageCount{
		{Stage: models.StageCollectionURL, Removed: 1},
		{Stage: models.StageMissingValues, Removed: 2},
		{Stage: models.StageNonPositive, Removed: 2},
		{Stage: models.StageConversion, Removed: 1},
	}
	if !reflect.DeepEqual(stats.RemovedByStage, wantStages) {
		t.Errorf("RemovedByStage = %+v, want %+v", stats.RemovedByStage, wantStages)
	}
	if stats.RowsRemoved() != 6 {
		t.Errorf("RowsRemoved() = %d, want 6", stats.RowsRemoved())
	}

	eur := out.Records[0]
	if eur.ReferenceCode != "A1" || !eur.PriceEUR.Decimal.Equal(dec("5000")) || eur.ConversionPath != models.PathEUR {
		t.Errorf("EUR row = %+v", eur)
	}
	if eur.Year != 2023 || eur.Quarter != 1 {
		t.Errorf("EUR row year/quarter = %d/Q%d", eur.Year, eur.Quarter)
	}

	usd := out.Records[1]
	if usd.ReferenceCode != "A8" || usd.Collection != "Explorer" || usd.Currency != "USD" {
		t.Errorf("identity fields not normalized: %q %q %q", usd.ReferenceCode, usd.Collection, usd.Currency)
	}
	if !usd.PriceEUR.Decimal.Equal(dec("9300")) || usd.ConversionPath != models.PathFallback {
		t.Errorf("USD row price_eur = %s via %s, want 9300 via fallback", usd.PriceEUR.Decimal, usd.ConversionPath)
	}
	if !usd.OriginalPrice.Decimal.Equal(dec("10000")) || usd.OriginalCurrency != "USD" || usd.ConversionMethod != models.ConversionMethodDirect {
		t.Errorf("USD row provenance = %s %s %s", usd.OriginalPrice.Decimal, usd.OriginalCurrency, usd.ConversionMethod)
	}
	if usd.Year != 2023 || usd.Quarter != 3 || usd.RawLifeSpanDate != "2023-08-01" {
		t.Errorf("USD row date fields = %d Q%d %q", usd.Year, usd.Quarter, usd.RawLifeSpanDate)
	}

	if len(stats.Currencies) != 2 || stats.Currencies[0].Currency != "EUR" || stats.Currencies[1].Currency != "USD" {
		t.Fatalf("Currencies = %+v, want EUR then USD", stats.Currencies)
	}
	cs, _ := stats.Currency("USD")
	if cs.Total != 2 || cs.Converted != 1 || cs.ViaFallback != 1 || cs.Implausible != 1 {
		t.Errorf("USD stats = %+v", cs)
	}
	if cs.SuccessRate() != 50 {
		t.Errorf("USD success rate = %v, want 50", cs.SuccessRate())
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	in := makeDataset([]string{"country"},
		row{ref: " R1 ", collection: "GMT", currency: "usd", price: "10000", date: "2023-05-05", extra: map[string]string{"country": "US"}},
	)

	out, _ := newTestCleaner(failing()).Clean(context.Background(), in)
	if out.Len() != 1 {
		t.Fatalf("expected one retained row, got %d", out.Len())
	}

	r := in.Records[0]
	if r.ReferenceCode != " R1 " || r.Currency != "usd" || r.RawLifeSpanDate != "2023-05-05" {
		t.Errorf("input record modified: %+v", r)
	}
	if r.PriceEUR.Valid || r.Year != 0 {
		t.Errorf("input record gained derived fields: %+v", r)
	}
	if r.Extra["country"] != "US" {
		t.Errorf("input extra modified: %v", r.Extra)
	}
	if len(in.Columns) != 6 {
		t.Errorf("input columns modified: %v", in.Columns)
	}
}

func TestClean_DropsUnneededColumns(t *testing.T) {
	in := makeDataset([]string{"is_new", "country", "brand", "price_before"},
		row{ref: "R1", collection: "GMT", currency: "EUR", price: "9000", date: "2023-05-05",
			extra: map[string]string{"is_new": "1", "country": "DE", "brand": "Rolex", "price_before": "8900"}},
	)

	out, stats := newTestCleaner(nil).Clean(context.Background(), in)

	wantCols := []string{models.ColReferenceCode, models.ColCollection, models.ColCurrency, models.ColPrice, models.ColLifeSpanDate, "brand"}
	if !reflect.DeepEqual(out.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", out.Columns, wantCols)
	}
	if !reflect.DeepEqual(stats.DroppedColumns, []string{"is_new", "country", "price_before"}) {
		t.Errorf("DroppedColumns = %v", stats.DroppedColumns)
	}
	extra := out.Records[0].Extra
	if len(extra) != 1 || extra["brand"] != "Rolex" {
		t.Errorf("Extra = %v, want only brand", extra)
	}
}

func TestClean_ToleratesAbsentDroppedColumns(t *testing.T) {
	in := makeDataset(nil, row{ref: "R1", collection: "GMT", currency: "EUR", price: "9000", date: "2023-05-05"})
	out, stats := newTestCleaner(nil).Clean(context.Background(), in)
	if out.Len() != 1 || len(stats.DroppedColumns) != 0 {
		t.Errorf("unexpected result: %d rows, dropped %v", out.Len(), stats.DroppedColumns)
	}
}

func TestClean_MissingValues(t *testing.T) {
	in := makeDataset(nil,
		row{ref: "", collection: "GMT", currency: "EUR", price: "9000", date: "2023-05-05"},
		row{ref: "   ", collection: "GMT", currency: "EUR", price: "9000", date: "2023-05-05"},
		row{ref: "R3", collection: "", currency: "EUR", price: "9000", date: "2023-05-05"},
		row{ref: "R4", collection: "GMT", currency: "EUR", price: "9000", date: ""},
		row{ref: "R5", collection: "GMT", currency: "EUR", price: "9000", date: "2023-05-05"},
	)
	out, stats := newTestCleaner(nil).Clean(context.Background(), in)
	if out.Len() != 1 || out.Records[0].ReferenceCode != "R5" {
		t.Errorf("retained %+v, want only R5", out.Records)
	}
	if got := stats.Removed(models.StageMissingValues); got != 4 {
		t.Errorf("missing values removed %d, want 4", got)
	}
}

func TestClean_HistoricalPath(t *testing.T) {
	p := HistoricalRateProviderFunc(func(_ context.Context, amount decimal.Decimal, from, _ string, _ time.Time) (decimal.Decimal, error) {
		if from != "GBP" {
			return decimal.Zero, errLookup
		}
		return amount.Mul(dec("1.15")), nil
	})
	in := makeDataset(nil,
		row{ref: "G1", collection: "Yacht-Master", currency: "GBP", price: "20000", date: "2023-11-20"},
		row{ref: "J1", collection: "Yacht-Master", currency: "JPY", price: "2000000", date: "2023-11-20"},
	)

	out, stats := newTestCleaner(p).Clean(context.Background(), in)
	if out.Len() != 2 {
		t.Fatalf("expected both rows, got %d", out.Len())
	}
	if got := out.Records[0]; !got.PriceEUR.Decimal.Equal(dec("23000")) || got.ConversionPath != models.PathHistorical {
		t.Errorf("GBP row = %s via %s", got.PriceEUR.Decimal, got.ConversionPath)
	}
	if got := out.Records[1]; !got.PriceEUR.Decimal.Equal(dec("14000")) || got.ConversionPath != models.PathFallback {
		t.Errorf("JPY row = %s via %s", got.PriceEUR.Decimal, got.ConversionPath)
	}
	if out.Records[0].Quarter != 4 {
		t.Errorf("quarter = %d, want 4", out.Records[0].Quarter)
	}
	gbp, _ := stats.Currency("GBP")
	if gbp.ViaHistorical != 1 {
		t.Errorf("GBP stats = %+v", gbp)
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := makeDataset([]string{"country", "brand"},
		row{ref: "R1", collection: "GMT", currency: "usd", price: "10000", date: "2023-05-05 10:00:00",
			extra: map[string]string{"country": "US", "brand": "Rolex"}},
		row{ref: "R2", collection: "HTTPS://x", currency: "EUR", price: "9000", date: "2023-05-05"},
		row{ref: "R3", collection: "GMT", currency: "CHF", price: "20000", date: "2023-05-05"},
	)
	c := newTestCleaner(failing())

	first, _ := c.Clean(context.Background(), in)
	second, stats := c.Clean(context.Background(), first)

	if stats.RowsRemoved() != 0 {
		t.Errorf("second pass removed %d rows", stats.RowsRemoved())
	}
	if !reflect.DeepEqual(first.Columns, second.Columns) {
		t.Errorf("columns changed: %v -> %v", first.Columns, second.Columns)
	}
	if first.Len() != second.Len() {
		t.Fatalf("rows changed: %d -> %d", first.Len(), second.Len())
	}
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		if !a.PriceEUR.Decimal.Equal(b.PriceEUR.Decimal) || a.RawLifeSpanDate != b.RawLifeSpanDate ||
			a.Year != b.Year || a.Quarter != b.Quarter || !reflect.DeepEqual(a.Extra, b.Extra) {
			t.Errorf("row %d changed on second pass:\n%+v\n%+v", i, a, b)
		}
	}
}

func TestClean_Empty(t *testing.T) {
	out, stats := newTestCleaner(nil).Clean(context.Background(), makeDataset(nil))
	if out.Len() != 0 || stats.InitialRows != 0 || stats.RemovedPercent() != 0 {
		t.Errorf("unexpected result for empty input: %+v", stats)
	}
	if len(stats.RemovedByStage) != 4 {
		t.Errorf("every stage should be reported, got %v", stats.RemovedByStage)
	}
}
