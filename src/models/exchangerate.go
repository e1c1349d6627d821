package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ECBResponse is the top-level structure for the ECB Data Portal API JSON response.
type ECBResponse struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]float64 `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
	Structure struct {
		Dimensions struct {
			Observation []struct {
				ID     string `json:"id"`
				Values []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"values"`
			} `json:"observation"`
		} `json:"dimensions"`
	} `json:"structure"`
}

// ExchangeRateFile represents the structure of the historical exchange rate JSON file.
// ObsValue is the number of currency units per EUR.
type ExchangeRateFile struct {
	Root struct {
		Obs []ExchangeRateObs `json:"Obs"`
	} `json:"root"`
}

// ExchangeRateObs is one daily reference rate observation.
type ExchangeRateObs struct {
	TimePeriod string `json:"_TIME_PERIOD"`
	ObsValue   string `json:"_OBS_VALUE"`
	Ccy        string `json:"_CCY"`
}

// ReferenceRate is a EUR rate for one currency.
type ReferenceRate struct {
	Currency string `json:"currency"`
	// EURPerUnit is the EUR value of one unit of Currency.
	EURPerUnit decimal.Decimal `json:"eur_per_unit"`
	Source     string          `json:"source"`
	Year       int             `json:"year,omitempty"`
	Date       time.Time       `json:"date,omitempty"`
}
