package processors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/shopspring/decimal"
)

const rateDateLayout = "2006-01-02"

// Historical rate errors.
var (
	ErrRatesNotLoaded  = errors.New("historical exchange rates not loaded")
	ErrRateNotFound    = errors.New("exchange rate not found")
	ErrInvalidRate     = errors.New("invalid exchange rate value")
	ErrNoRateProviders = errors.New("no historical rate provider configured")
)

// RateFunc returns the number of currency units per EUR on date.
type RateFunc func(currency string, date time.Time) (decimal.Decimal, error)

// ConvertWithRates converts amount from one currency to another through EUR.
func ConvertWithRates(amount decimal.Decimal, from, to string, date time.Time, rate RateFunc) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	eur := amount
	if from != "EUR" {
		r, err := rate(from, date)
		if err != nil {
			return decimal.Zero, err
		}
		eur = amount.Div(r)
	}
	if to == "EUR" {
		return eur, nil
	}

	r, err := rate(to, date)
	if err != nil {
		return decimal.Zero, err
	}
	return eur.Mul(r), nil
}

// HistoricalRateStore serves ECB reference rates loaded once from a JSON file.
type HistoricalRateStore struct {
	rates        map[string]map[string]decimal.Decimal
	lookbackDays int
	observations int
}

// LoadHistoricalRates loads rates from the specified file path.
// lookbackDays lets a lookup fall back to the latest earlier observation within that many days.
func LoadHistoricalRates(filePath string, lookbackDays int) (*HistoricalRateStore, error) {
	logger.L.Info("Loading historical exchange rates", "path", filePath)
	file, err := os.ReadFile(filePath)
	if err != nil {
		logger.L.Error("Error reading historical exchange rate file", "path", filePath, "error", err)
		return nil, fmt.Errorf("error reading historical exchange rate file '%s': %w", filePath, err)
	}

	var data models.ExchangeRateFile
	if err := json.Unmarshal(file, &data); err != nil {
		logger.L.Error("Error unmarshalling historical exchange rates", "path", filePath, "error", err)
		return nil, fmt.Errorf("error unmarshalling historical exchange rates from '%s': %w", filePath, err)
	}

	store := NewHistoricalRateStore(data, lookbackDays)
	logger.L.Info("Historical exchange rates loaded successfully.", "path", filePath, "observationCount", store.observations, "currencies", len(store.rates))
	return store, nil
}

// NewHistoricalRateStore indexes the observations of data. Unusable observations are skipped.
func NewHistoricalRateStore(data models.ExchangeRateFile, lookbackDays int) *HistoricalRateStore {
	s := &HistoricalRateStore{
		rates:        make(map[string]map[string]decimal.Decimal),
		lookbackDays: lookbackDays,
	}
	for _, obs := range data.Root.Obs {
		ccy := strings.ToUpper(strings.TrimSpace(obs.Ccy))
		rate, err := decimal.NewFromString(strings.TrimSpace(obs.ObsValue))
		if err != nil || !rate.IsPositive() {
			logger.L.Warn("Invalid exchange rate value in data", "currency", ccy, "date", obs.TimePeriod, "value", obs.ObsValue)
			continue
		}
		if _, err := time.Parse(rateDateLayout, obs.TimePeriod); err != nil {
			logger.L.Warn("Invalid exchange rate date in data", "currency", ccy, "date", obs.TimePeriod)
			continue
		}
		if s.rates[ccy] == nil {
			s.rates[ccy] = make(map[string]decimal.Decimal)
		}
		s.rates[ccy][obs.TimePeriod] = rate
		s.observations++
	}
	return s
}

// GetExchangeRate retrieves the units of currency per EUR on date.
func (s *HistoricalRateStore) GetExchangeRate(currency string, date time.Time) (decimal.Decimal, error) {
	if s == nil || s.rates == nil {
		return decimal.Zero, ErrRatesNotLoaded
	}

	currency = strings.ToUpper(currency)
	if currency == "EUR" {
		return decimal.NewFromInt(1), nil
	}

	byDate, ok := s.rates[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no observations for %s", ErrRateNotFound, currency)
	}

	for i := 0; i <= s.lookbackDays; i++ {
		day := date.AddDate(0, 0, -i).Format(rateDateLayout)
		if rate, ok := byDate[day]; ok {
			return rate, nil
		}
	}
	logger.L.Debug("Exchange rate not found", "currency", currency, "date", date.Format(rateDateLayout))
	return decimal.Zero, fmt.Errorf("%w for %s on %s", ErrRateNotFound, currency, date.Format(rateDateLayout))
}

// ConvertAmount implements HistoricalRateProvider.
func (s *HistoricalRateStore) ConvertAmount(_ context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	return ConvertWithRates(amount, from, to, date, s.GetExchangeRate)
}

// Currencies returns the number of currencies with at least one observation.
func (s *HistoricalRateStore) Currencies() int { return len(s.rates) }

// ProviderChain tries providers in order; the first conversion that succeeds wins.
type ProviderChain []HistoricalRateProvider

// ConvertAmount implements HistoricalRateProvider.
func (c ProviderChain) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	if len(c) == 0 {
		return decimal.Zero, ErrNoRateProviders
	}
	var errs []error
	for _, p := range c {
		out, err := p.ConvertAmount(ctx, amount, from, to, date)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
	}
	return decimal.Zero, errors.Join(errs...)
}
