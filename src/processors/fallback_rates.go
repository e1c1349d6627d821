package processors

import (
	"sort"
	"sync"

	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/shopspring/decimal"
)

// FallbackRateYear is the reference year of the static rates.
const FallbackRateYear = 2023

// ECB euro reference rates for 2023, expressed as the EUR value of one unit of currency.
var fallbackRateValues = map[string]string{
	"USD": "0.93",
	"JPY": "0.0070",
	"GBP": "1.14",
	"CHF": "1.02",
	"SGD": "0.70",
	"HKD": "0.12",
	"CNY": "0.14",
	"KRW": "0.00073",
	"TWD": "0.03",
	"AED": "0.24",
}

// FallbackRateTable maps currency codes to a year-fixed EUR-per-unit rate.
// It is immutable after construction.
type FallbackRateTable struct {
	year  int
	rates map[string]decimal.Decimal
}

var (
	defaultFallbackOnce  sync.Once
	defaultFallbackRates *FallbackRateTable
)

// DefaultFallbackRates returns the process-wide table, built on first use.
func DefaultFallbackRates() *FallbackRateTable {
	defaultFallbackOnce.Do(func() {
		rates := make(map[string]decimal.Decimal, len(fallbackRateValues))
		for code, v := range fallbackRateValues {
			rates[code] = decimal.RequireFromString(v)
		}
		defaultFallbackRates = &FallbackRateTable{year: FallbackRateYear, rates: rates}
	})
	return defaultFallbackRates
}

// NewFallbackRateTable builds a table from explicit rates. The map is copied.
func NewFallbackRateTable(year int, rates map[string]decimal.Decimal) *FallbackRateTable {
	cp := make(map[string]decimal.Decimal, len(rates))
	for code, r := range rates {
		cp[code] = r
	}
	return &FallbackRateTable{year: year, rates: cp}
}

// Rate returns the EUR-per-unit rate for code, or false if the code is not covered.
// EUR itself is not in the table.
func (t *FallbackRateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.rates[code]
	return r, ok
}

// Year returns the reference year of the rates.
func (t *FallbackRateTable) Year() int { return t.year }

// Currencies returns the covered codes in alphabetical order.
func (t *FallbackRateTable) Currencies() []string {
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Snapshot lists the table as reference rates, sorted by currency.
func (t *FallbackRateTable) Snapshot() []models.ReferenceRate {
	out := make([]models.ReferenceRate, 0, len(t.rates))
	for _, code := range t.Currencies() {
		out = append(out, models.ReferenceRate{
			Currency:   code,
			EURPerUnit: t.rates[code],
			Source:     "fallback",
			Year:       t.year,
		})
	}
	return out
}
