package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the product dataset.
const (
	ColReferenceCode = "reference_code"
	ColCollection    = "collection"
	ColCurrency      = "currency"
	ColPrice         = "price"
	ColLifeSpanDate  = "life_span_date"

	ColOriginalPrice    = "original_price"
	ColOriginalCurrency = "original_currency"
	ColConversionMethod = "conversion_method"
	ColPriceEUR         = "price_eur"
	ColYear             = "year"
	ColQuarter          = "quarter"
)

// ConversionMethodDirect is written to every retained record, whichever path produced price_eur.
const ConversionMethodDirect = "direct"

// RequiredColumns must be present in every input file.
var RequiredColumns = []string{ColPrice, ColCurrency, ColCollection, ColReferenceCode, ColLifeSpanDate}

// DerivedColumns are computed by the cleaner and appended to the output in this order.
var DerivedColumns = []string{ColOriginalPrice, ColOriginalCurrency, ColConversionMethod, ColPriceEUR, ColYear, ColQuarter}

// DroppedColumns are removed from the output when present.
var DroppedColumns = []string{"is_new", "country", "price_before", "price_changed", "price_percent_change", "price_difference"}

// Record is one product row.
type Record struct {
	// --- Fields read from the source file ---
	ReferenceCode string              `json:"reference_code"`
	Collection    string              `json:"collection"`
	Currency      string              `json:"currency"`
	Price         decimal.NullDecimal `json:"price"`
	// RawLifeSpanDate keeps the source text until the cleaner parses it.
	RawLifeSpanDate string `json:"-"`
	// LifeSpanDate is the zero time when missing or unparsable.
	LifeSpanDate time.Time `json:"life_span_date"`
	// Extra holds pass-through columns keyed by column name.
	Extra map[string]string `json:"extra,omitempty"`

	// --- Fields filled by the cleaner ---
	OriginalPrice    decimal.NullDecimal `json:"original_price"`
	OriginalCurrency string              `json:"original_currency"`
	ConversionMethod string              `json:"conversion_method"`
	PriceEUR         decimal.NullDecimal `json:"price_eur"`
	// ConversionPath records which branch produced PriceEUR. It is not exported to CSV.
	ConversionPath ConversionPath `json:"conversion_path,omitempty"`
	Year           int            `json:"year"`
	Quarter        int            `json:"quarter"`
}

// HasLifeSpanDate reports whether the record carries a parsed date.
func (r Record) HasLifeSpanDate() bool {
	return !r.LifeSpanDate.IsZero()
}

// Clone returns a deep copy so the cleaner never mutates its input snapshot.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Dataset is an in-memory snapshot of the product table.
type Dataset struct {
	// Columns lists the pass-through columns in input order, required columns included.
	// Derived columns are never listed here.
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// HasColumn reports whether name is one of the dataset's pass-through columns.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// OutputColumns returns the pass-through columns followed by the derived ones.
func (d Dataset) OutputColumns() []string {
	cols := make([]string, 0, len(d.Columns)+len(DerivedColumns))
	cols = append(cols, d.Columns...)
	return append(cols, DerivedColumns...)
}

// IsDerivedColumn reports whether name is computed by the cleaner.
func IsDerivedColumn(name string) bool {
	for _, c := range DerivedColumns {
		if c == name {
			return true
		}
	}
	return false
}

// IsCoreColumn reports whether name maps onto a typed Record field.
func IsCoreColumn(name string) bool {
	for _, c := range RequiredColumns {
		if c == name {
			return true
		}
	}
	return false
}
