package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/metrics"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/processors"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultECBBaseURL = "https://data-api.ecb.europa.eu"
	ecbDateLayout     = "2006-01-02"
)

var ErrECBUnavailable = errors.New("ECB data portal request failed")

// ECBRateServiceOptions configures the ECB client.
type ECBRateServiceOptions struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
	LookbackDays      int
	Metrics           *metrics.Registry
}

// ECBRateService fetches daily euro reference rates from the ECB Data Portal.
// It implements processors.HistoricalRateProvider.
type ECBRateService struct {
	baseURL      string
	httpClient   http.Client
	limiter      *rate.Limiter
	cache        *cache.Cache
	lookbackDays int
	metrics      *metrics.Registry
}

type cachedRate struct {
	rate  decimal.Decimal
	found bool
}

// NewECBRateService creates a new instance of the ECB rate service.
func NewECBRateService(opts ECBRateServiceOptions) *ECBRateService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultECBBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 4
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}

	return &ECBRateService{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		cache:        cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		lookbackDays: opts.LookbackDays,
		metrics:      opts.Metrics,
	}
}

// ConvertAmount implements processors.HistoricalRateProvider.
func (s *ECBRateService) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	return processors.ConvertWithRates(amount, from, to, date, func(currency string, day time.Time) (decimal.Decimal, error) {
		return s.GetExchangeRate(ctx, currency, day)
	})
}

// GetExchangeRate returns the units of currency per EUR on date, looking back up to
// the configured number of days when the ECB published no fixing that day.
func (s *ECBRateService) GetExchangeRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "EUR" {
		return decimal.NewFromInt(1), nil
	}
	if len(currency) != 3 {
		return decimal.Zero, fmt.Errorf("%w: invalid currency code %q", processors.ErrRateNotFound, currency)
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	key := cacheKey(currency, day)
	if v, ok := s.cache.Get(key); ok {
		s.metrics.ObserveRateLookup("cache_hit")
		return cachedResult(v.(cachedRate), currency, day)
	}

	observations, err := s.fetch(ctx, currency, day.AddDate(0, 0, -s.lookbackDays), day)
	if err != nil {
		s.metrics.ObserveRateLookup("error")
		return decimal.Zero, err
	}
	s.metrics.ObserveRateLookup("fetched")

	result := cachedRate{}
	for i := 0; i <= s.lookbackDays; i++ {
		if r, ok := observations[day.AddDate(0, 0, -i).Format(ecbDateLayout)]; ok {
			result = cachedRate{rate: r, found: true}
			break
		}
	}
	s.cache.Set(key, result, cache.DefaultExpiration)
	return cachedResult(result, currency, day)
}

func cachedResult(c cachedRate, currency string, day time.Time) (decimal.Decimal, error) {
	if !c.found {
		return decimal.Zero, fmt.Errorf("%w for %s on %s", processors.ErrRateNotFound, currency, day.Format(ecbDateLayout))
	}
	return c.rate, nil
}

func cacheKey(currency string, day time.Time) string {
	return currency + "|" + day.Format(ecbDateLayout)
}

// fetch returns the observations of one currency in [start, end], keyed by date.
func (s *ECBRateService) fetch(ctx context.Context, currency string, start, end time.Time) (map[string]decimal.Decimal, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrECBUnavailable, err)
	}

	q := url.Values{}
	q.Set("startPeriod", start.Format(ecbDateLayout))
	q.Set("endPeriod", end.Format(ecbDateLayout))
	q.Set("format", "jsondata")
	reqURL := fmt.Sprintf("%s/service/data/EXR/D.%s.EUR.SP00.A?%s", s.baseURL, url.PathEscape(currency), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	logger.L.Debug("Fetching ECB reference rates", "currency", currency, "start", start.Format(ecbDateLayout), "end", end.Format(ecbDateLayout))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrECBUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The portal answers 404 when the series has no data in the window.
		return map[string]decimal.Decimal{}, nil
	case resp.StatusCode != http.StatusOK:
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d for %s. Body: %s", ErrECBUnavailable, resp.StatusCode, currency, string(bodyBytes))
	}

	var data models.ECBResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response for %s: %v", ErrECBUnavailable, currency, err)
	}
	return parseECBObservations(data), nil
}

// parseECBObservations maps SDMX-JSON observation indexes onto their TIME_PERIOD values.
func parseECBObservations(data models.ECBResponse) map[string]decimal.Decimal {
	var periods []string
	for _, dim := range data.Structure.Dimensions.Observation {
		if dim.ID != "TIME_PERIOD" {
			continue
		}
		for _, v := range dim.Values {
			periods = append(periods, v.ID)
		}
	}

	out := make(map[string]decimal.Decimal)
	for _, ds := range data.DataSets {
		keys := make([]string, 0, len(ds.Series))
		for k := range ds.Series {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for idx, values := range ds.Series[k].Observations {
				i, err := strconv.Atoi(idx)
				if err != nil || i < 0 || i >= len(periods) || len(values) == 0 {
					logger.L.Warn("Skipping malformed ECB observation", "series", k, "index", idx)
					continue
				}
				r := decimal.NewFromFloat(values[0])
				if !r.IsPositive() {
					continue
				}
				out[periods[i]] = r
			}
		}
	}
	return out
}
