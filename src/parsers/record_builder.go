package parsers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/security/validation"
	"github.com/shopspring/decimal"
)

// normalizeHeader strips BOMs and other unprintable runes from a column name.
func normalizeHeader(name string) string {
	return strings.TrimSpace(validation.StripUnprintable(name))
}

// checkRequiredColumns fails with ErrMissingColumns naming every absent required column.
func checkRequiredColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, c := range models.RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
}

// passThroughColumns drops derived columns so a cleaned file can be cleaned again.
func passThroughColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" || seen[c] || models.IsDerivedColumn(c) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// buildRecord maps named values onto a record. Values of derived columns are ignored.
func buildRecord(values map[string]string) models.Record {
	var rec models.Record
	for col, v := range values {
		switch col {
		case models.ColReferenceCode:
			rec.ReferenceCode = v
		case models.ColCollection:
			rec.Collection = v
		case models.ColCurrency:
			rec.Currency = v
		case models.ColPrice:
			rec.Price = parsePrice(v)
		case models.ColLifeSpanDate:
			rec.RawLifeSpanDate = strings.TrimSpace(v)
		default:
			if models.IsDerivedColumn(col) {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[col] = v
		}
	}
	return rec
}

// parsePrice returns an invalid NullDecimal for empty or non-numeric input.
func parsePrice(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		logger.L.Debug("Unparsable price treated as missing", "value", s)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
