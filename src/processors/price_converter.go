package processors

import (
	"context"
	"fmt"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/shopspring/decimal"
)

// Plausibility window and cross-check tolerance for EUR prices.
var (
	MinPlausibleEUR      = decimal.NewFromInt(1000)
	MaxPlausibleEUR      = decimal.NewFromInt(100000)
	MaxRelativeDeviation = decimal.RequireFromString("0.10")
)

// IsPlausibleEUR reports whether v lies in the inclusive plausibility window.
func IsPlausibleEUR(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(MinPlausibleEUR) && v.LessThanOrEqual(MaxPlausibleEUR)
}

// RelativeDeviation returns |a - b| / b. ok is false when b is zero.
func RelativeDeviation(a, b decimal.Decimal) (dev decimal.Decimal, ok bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.Sub(b).Abs().Div(b.Abs()), true
}

// PriceConverter produces validated EUR prices from a historical rate provider
// cross-checked against the fallback rate table.
type PriceConverter struct {
	provider HistoricalRateProvider
	fallback *FallbackRateTable
}

// NewPriceConverter creates a converter. provider may be nil, in which case only the
// fallback table is used. A nil fallback uses DefaultFallbackRates.
func NewPriceConverter(provider HistoricalRateProvider, fallback *FallbackRateTable) *PriceConverter {
	if fallback == nil {
		fallback = DefaultFallbackRates()
	}
	return &PriceConverter{provider: provider, fallback: fallback}
}

// Fallback returns the table used for cross-checks.
func (c *PriceConverter) Fallback() *FallbackRateTable { return c.fallback }

// ConvertRecord converts the record's price at its life-span date.
// Unexpected failures are logged with the reference code and currency.
func (c *PriceConverter) ConvertRecord(ctx context.Context, rec models.Record) models.ConversionResult {
	return c.safeConvert(ctx, rec.Price, rec.Currency, rec.LifeSpanDate, rec.ReferenceCode)
}

// Convert converts price in currency to EUR as of the given day.
func (c *PriceConverter) Convert(ctx context.Context, price decimal.NullDecimal, currency string, asOf time.Time) models.ConversionResult {
	return c.safeConvert(ctx, price, currency, asOf, "")
}

func (c *PriceConverter) safeConvert(ctx context.Context, price decimal.NullDecimal, currency string, asOf time.Time, ref string) (res models.ConversionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Conversion error", "referenceCode", ref, "currency", currency, "error", r)
			res = models.Failed(models.ReasonInternalError, fmt.Sprint(r))
		}
	}()
	return c.convert(ctx, price, currency, asOf)
}

func (c *PriceConverter) convert(ctx context.Context, price decimal.NullDecimal, currency string, asOf time.Time) models.ConversionResult {
	if !price.Valid || !price.Decimal.IsPositive() {
		return models.Failed(models.ReasonInvalidPrice, "price missing or not positive")
	}
	amount := price.Decimal

	if currency == "EUR" {
		if IsPlausibleEUR(amount) {
			return models.Converted(amount, models.PathEUR)
		}
		return models.Failed(models.ReasonImplausible, "EUR price outside plausibility window")
	}

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	rate, hasFallback := c.fallback.Rate(currency)
	fallbackPrice := amount.Mul(rate)

	var detail string
	lookup := c.lookupHistorical(ctx, amount, currency, day)
	if lookup.Converted() {
		ok, why := acceptHistorical(lookup.Amount, fallbackPrice, hasFallback)
		if ok {
			return models.Converted(lookup.Amount, models.PathHistorical)
		}
		detail = why
	} else {
		detail = "historical lookup failed: " + lookup.Err.Error()
	}

	if !hasFallback {
		return models.Failed(models.ReasonNoRate, detail)
	}
	if IsPlausibleEUR(fallbackPrice) {
		return models.Converted(fallbackPrice, models.PathFallback)
	}
	return models.Failed(models.ReasonImplausible, "fallback price "+fallbackPrice.String()+" outside plausibility window")
}

// lookupHistorical asks the provider for a EUR amount. Errors and panics of the provider
// are turned into a failed result.
func (c *PriceConverter) lookupHistorical(ctx context.Context, amount decimal.Decimal, currency string, day time.Time) (res LookupResult) {
	if c.provider == nil {
		return LookupFailed(ErrNoRateProviders)
	}
	defer func() {
		if r := recover(); r != nil {
			res = LookupFailed(fmt.Errorf("rate provider panic: %v", r))
		}
	}()
	out, err := c.provider.ConvertAmount(ctx, amount, currency, "EUR", day)
	if err != nil {
		return LookupFailed(err)
	}
	return LookupConverted(out)
}

func acceptHistorical(historical, fallbackPrice decimal.Decimal, hasFallback bool) (bool, string) {
	if !IsPlausibleEUR(historical) {
		return false, "historical price " + historical.String() + " outside plausibility window"
	}
	if !hasFallback {
		return false, "no fallback rate to cross-check historical price"
	}
	dev, ok := RelativeDeviation(historical, fallbackPrice)
	if !ok {
		return false, "fallback price is zero, deviation cannot be computed"
	}
	if !dev.LessThan(MaxRelativeDeviation) {
		return false, "historical price deviates " + dev.StringFixed(4) + " from fallback"
	}
	return true, ""
}
