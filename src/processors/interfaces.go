package processors

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalRateProvider converts an amount between currencies at the rate of a given day.
// Unsupported currency/date combinations are reported as ordinary errors.
type HistoricalRateProvider interface {
	ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error)
}

// HistoricalRateProviderFunc adapts a function to HistoricalRateProvider.
type HistoricalRateProviderFunc func(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error)

func (f HistoricalRateProviderFunc) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	return f(ctx, amount, from, to, date)
}

// LookupResult is the outcome of a historical lookup: Converted (Err == nil) or Failed(Err).
type LookupResult struct {
	Amount decimal.Decimal
	Err    error
}

// Converted reports whether the lookup produced an amount.
func (r LookupResult) Converted() bool { return r.Err == nil }

// LookupConverted builds a successful lookup result.
func LookupConverted(amount decimal.Decimal) LookupResult {
	return LookupResult{Amount: amount}
}

// LookupFailed builds a failed lookup result.
func LookupFailed(err error) LookupResult {
	return LookupResult{Err: err}
}
