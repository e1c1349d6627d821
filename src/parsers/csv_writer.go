package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/security/validation"
	"github.com/paulcha3/group4-BDM-case/src/utils"
	"github.com/shopspring/decimal"
)

// CSVWriter writes cleaned datasets with the derived columns appended.
type CSVWriter struct {
	// Sanitize protects text cells against formula injection in spreadsheet tools.
	Sanitize bool
}

func NewCSVWriter(sanitize bool) *CSVWriter {
	return &CSVWriter{Sanitize: sanitize}
}

// Write emits a header followed by one line per record.
func (w *CSVWriter) Write(out io.Writer, ds models.Dataset) error {
	cw := csv.NewWriter(out)
	columns := ds.OutputColumns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	line := make([]string, len(columns))
	for i, rec := range ds.Records {
		for j, col := range columns {
			line[j] = w.cell(CellValue(rec, col))
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

func (w *CSVWriter) cell(v string) string {
	if w.Sanitize {
		return validation.SanitizeForFormulaInjection(v)
	}
	return v
}

// CellValue renders the value of column col for rec as text.
func CellValue(rec models.Record, col string) string {
	switch col {
	case models.ColReferenceCode:
		return rec.ReferenceCode
	case models.ColCollection:
		return rec.Collection
	case models.ColCurrency:
		return rec.Currency
	case models.ColPrice:
		return nullDecimalText(rec.Price)
	case models.ColLifeSpanDate:
		if rec.HasLifeSpanDate() {
			return utils.FormatDate(rec.LifeSpanDate)
		}
		return rec.RawLifeSpanDate
	case models.ColOriginalPrice:
		return nullDecimalText(rec.OriginalPrice)
	case models.ColOriginalCurrency:
		return rec.OriginalCurrency
	case models.ColConversionMethod:
		return rec.ConversionMethod
	case models.ColPriceEUR:
		return nullDecimalText(rec.PriceEUR)
	case models.ColYear:
		return intText(rec.Year)
	case models.ColQuarter:
		return intText(rec.Quarter)
	default:
		return rec.Extra[col]
	}
}

func nullDecimalText(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func intText(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
