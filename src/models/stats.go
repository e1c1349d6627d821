package models

// Cleaning stages, in execution order.
const (
	StageCollectionURL = "collection_url"
	StageMissingValues = "missing_values"
	StageNonPositive   = "non_positive_price"
	StageConversion    = "price_conversion"
)

// StageCount is the number of rows a stage removed.
type StageCount struct {
	Stage   string `json:"stage" yaml:"stage"`
	Removed int    `json:"removed" yaml:"removed"`
}

// CurrencyStats counts conversion outcomes for one currency.
type CurrencyStats struct {
	Currency       string `json:"currency" yaml:"currency"`
	Total          int    `json:"total" yaml:"total"`
	Converted      int    `json:"converted" yaml:"converted"`
	Failed         int    `json:"failed" yaml:"failed"`
	ViaEUR         int    `json:"via_eur" yaml:"via_eur"`
	ViaHistorical  int    `json:"via_historical" yaml:"via_historical"`
	ViaFallback    int    `json:"via_fallback" yaml:"via_fallback"`
	InvalidPrice   int    `json:"invalid_price,omitempty" yaml:"invalid_price,omitempty"`
	Implausible    int    `json:"implausible,omitempty" yaml:"implausible,omitempty"`
	NoRate         int    `json:"no_rate,omitempty" yaml:"no_rate,omitempty"`
	InternalErrors int    `json:"internal_errors,omitempty" yaml:"internal_errors,omitempty"`
}

// SuccessRate is the converted share in percent. Zero when no row was attempted.
func (c CurrencyStats) SuccessRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Converted) / float64(c.Total) * 100
}

// Record adds one conversion outcome.
func (c *CurrencyStats) Record(res ConversionResult) {
	c.Total++
	if res.OK() {
		c.Converted++
		switch res.Path {
		case PathEUR:
			c.ViaEUR++
		case PathHistorical:
			c.ViaHistorical++
		case PathFallback:
			c.ViaFallback++
		}
		return
	}
	c.Failed++
	switch res.Reason {
	case ReasonInvalidPrice:
		c.InvalidPrice++
	case ReasonImplausible:
		c.Implausible++
	case ReasonNoRate:
		c.NoRate++
	case ReasonInternalError:
		c.InternalErrors++
	}
}

// CleaningStats summarizes one cleaning pass.
type CleaningStats struct {
	InitialRows    int             `json:"initial_rows" yaml:"initial_rows"`
	FinalRows      int             `json:"final_rows" yaml:"final_rows"`
	RemovedByStage []StageCount    `json:"removed_by_stage" yaml:"removed_by_stage"`
	Currencies     []CurrencyStats `json:"currencies" yaml:"currencies"`
	DroppedColumns []string        `json:"dropped_columns,omitempty" yaml:"dropped_columns,omitempty"`
}

// RowsRemoved is the total number of rows removed by all stages.
func (s CleaningStats) RowsRemoved() int {
	return s.InitialRows - s.FinalRows
}

// RemovedPercent is RowsRemoved as a share of InitialRows in percent.
func (s CleaningStats) RemovedPercent() float64 {
	if s.InitialRows == 0 {
		return 0
	}
	return float64(s.RowsRemoved()) / float64(s.InitialRows) * 100
}

// Removed returns the count for a stage, or 0 if the stage is unknown.
func (s CleaningStats) Removed(stage string) int {
	for _, sc := range s.RemovedByStage {
		if sc.Stage == stage {
			return sc.Removed
		}
	}
	return 0
}

// Currency returns the stats for code and whether any row had that currency.
func (s CleaningStats) Currency(code string) (CurrencyStats, bool) {
	for _, cs := range s.Currencies {
		if cs.Currency == code {
			return cs, true
		}
	}
	return CurrencyStats{}, false
}
