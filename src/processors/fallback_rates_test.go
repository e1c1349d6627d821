package processors

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultFallbackRates(t *testing.T) {
	table := DefaultFallbackRates()
	if table != DefaultFallbackRates() {
		t.Fatal("DefaultFallbackRates should return the same table on every call")
	}
	if table.Year() != 2023 {
		t.Errorf("Year() = %d, want 2023", table.Year())
	}

	want := map[string]string{
		"USD": "0.93", "JPY": "0.007", "GBP": "1.14", "CHF": "1.02", "SGD": "0.7",
		"HKD": "0.12", "CNY": "0.14", "KRW": "0.00073", "TWD": "0.03", "AED": "0.24",
	}
	if got := len(table.Currencies()); got != len(want) {
		t.Errorf("Currencies() has %d codes, want %d", got, len(want))
	}
	for code, v := range want {
		rate, ok := table.Rate(code)
		if !ok {
			t.Errorf("Rate(%s) missing", code)
			continue
		}
		if !rate.Equal(decimal.RequireFromString(v)) {
			t.Errorf("Rate(%s) = %s, want %s", code, rate, v)
		}
	}
}

func TestFallbackRates_Unknown(t *testing.T) {
	table := DefaultFallbackRates()
	for _, code := range []string{"EUR", "BRL", "usd", ""} {
		if _, ok := table.Rate(code); ok {
			t.Errorf("Rate(%q) should be unknown", code)
		}
	}
}

func TestFallbackRates_Snapshot(t *testing.T) {
	snap := DefaultFallbackRates().Snapshot()
	if len(snap) != 10 {
		t.Fatalf("Snapshot() len = %d, want 10", len(snap))
	}
	if snap[0].Currency != "AED" || snap[len(snap)-1].Currency != "USD" {
		t.Errorf("Snapshot() not sorted: first %s last %s", snap[0].Currency, snap[len(snap)-1].Currency)
	}
	for _, r := range snap {
		if r.Source != "fallback" || r.Year != 2023 {
			t.Errorf("unexpected reference rate %+v", r)
		}
	}
}

func TestNewFallbackRateTable_CopiesInput(t *testing.T) {
	in := map[string]decimal.Decimal{"USD": decimal.RequireFromString("0.5")}
	table := NewFallbackRateTable(2020, in)
	in["USD"] = decimal.RequireFromString("9")
	in["GBP"] = decimal.RequireFromString("1")

	rate, _ := table.Rate("USD")
	if !rate.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("table changed with its input map: USD = %s", rate)
	}
	if _, ok := table.Rate("GBP"); ok {
		t.Error("table gained a code added to the input map later")
	}
}
