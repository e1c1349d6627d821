package metrics

import (
	"net/http"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeParseError = "parse_error"
	OutcomeError      = "error"
)

type Registry struct {
	reg         *prometheus.Registry
	Runs        *prometheus.CounterVec
	RowsIn      prometheus.Counter
	RowsOut     prometheus.Counter
	RowsRemoved *prometheus.CounterVec
	Conversions *prometheus.CounterVec
	RunDuration prometheus.Histogram
	RateLookups *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bdm_cleaning_runs_total",
		Help: "Cleaning runs by outcome.",
	}, []string{"outcome"})
	rowsIn := prometheus.NewCounter(prometheus.CounterOpts{Name: "bdm_rows_in_total", Help: "Rows read by cleaning runs."})
	rowsOut := prometheus.NewCounter(prometheus.CounterOpts{Name: "bdm_rows_out_total", Help: "Rows retained by cleaning runs."})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bdm_rows_removed_total",
		Help: "Rows removed per cleaning stage.",
	}, []string{"stage"})
	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bdm_price_conversions_total",
		Help: "EUR conversion outcomes per currency.",
	}, []string{"currency", "outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bdm_cleaning_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bdm_ecb_rate_lookups_total",
		Help: "ECB rate lookups by result (cache_hit, fetched, error).",
	}, []string{"result"})

	r.MustRegister(runs, rowsIn, rowsOut, removed, conversions, duration, lookups)
	return &Registry{
		reg:         r,
		Runs:        runs,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		RowsRemoved: removed,
		Conversions: conversions,
		RunDuration: duration,
		RateLookups: lookups,
	}
}

// ObserveRun records a finished cleaning pass.
func (r *Registry) ObserveRun(stats models.CleaningStats, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(OutcomeOK).Inc()
	r.RowsIn.Add(float64(stats.InitialRows))
	r.RowsOut.Add(float64(stats.FinalRows))
	for _, sc := range stats.RemovedByStage {
		r.RowsRemoved.WithLabelValues(sc.Stage).Add(float64(sc.Removed))
	}
	for _, cs := range stats.Currencies {
		add := func(outcome string, n int) {
			if n > 0 {
				r.Conversions.WithLabelValues(cs.Currency, outcome).Add(float64(n))
			}
		}
		add(string(models.PathEUR), cs.ViaEUR)
		add(string(models.PathHistorical), cs.ViaHistorical)
		add(string(models.PathFallback), cs.ViaFallback)
		add(string(models.ReasonInvalidPrice), cs.InvalidPrice)
		add(string(models.ReasonImplausible), cs.Implausible)
		add(string(models.ReasonNoRate), cs.NoRate)
		add(string(models.ReasonInternalError), cs.InternalErrors)
	}
	r.RunDuration.Observe(elapsed.Seconds())
}

// ObserveFailure counts a run that did not complete.
func (r *Registry) ObserveFailure(outcome string) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(outcome).Inc()
}

// ObserveRateLookup counts one ECB lookup result.
func (r *Registry) ObserveRateLookup(result string) {
	if r == nil {
		return
	}
	r.RateLookups.WithLabelValues(result).Inc()
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
