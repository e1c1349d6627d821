package models

import "github.com/shopspring/decimal"

// ConversionPath identifies the branch that produced a EUR price.
type ConversionPath string

const (
	PathNone       ConversionPath = ""
	PathEUR        ConversionPath = "eur"
	PathHistorical ConversionPath = "historical"
	PathFallback   ConversionPath = "fallback"
)

// ConversionStatus is either Converted or Failed.
type ConversionStatus string

const (
	StatusConverted ConversionStatus = "converted"
	StatusFailed    ConversionStatus = "failed"
)

// FailureReason explains why a record has no trustworthy EUR price.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonInvalidPrice  FailureReason = "invalid_price"
	ReasonImplausible   FailureReason = "implausible"
	ReasonNoRate        FailureReason = "no_rate"
	ReasonInternalError FailureReason = "internal_error"
)

// ConversionResult is the outcome of converting one price to EUR.
type ConversionResult struct {
	Status   ConversionStatus `json:"status"`
	PriceEUR decimal.Decimal  `json:"price_eur"`
	Path     ConversionPath   `json:"path,omitempty"`
	Reason   FailureReason    `json:"reason,omitempty"`
	// Detail carries diagnostic text, such as the historical lookup error.
	Detail string `json:"detail,omitempty"`
}

// OK reports whether a EUR price was produced.
func (r ConversionResult) OK() bool { return r.Status == StatusConverted }

// Converted builds a successful result.
func Converted(priceEUR decimal.Decimal, path ConversionPath) ConversionResult {
	return ConversionResult{Status: StatusConverted, PriceEUR: priceEUR, Path: path}
}

// Failed builds a failed result.
func Failed(reason FailureReason, detail string) ConversionResult {
	return ConversionResult{Status: StatusFailed, Reason: reason, Detail: detail}
}
