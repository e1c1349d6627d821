package processors

import (
	"context"
	"strings"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/utils"
	"github.com/shopspring/decimal"
)

// collectionURLMarker flags scraped collection values that are links rather than names.
const collectionURLMarker = "HTTPS:"

// DatasetCleaner filters and normalizes product records and prices them in EUR.
type DatasetCleaner struct {
	converter *PriceConverter
}

// NewDatasetCleaner creates a cleaner that prices rows with converter.
func NewDatasetCleaner(converter *PriceConverter) *DatasetCleaner {
	return &DatasetCleaner{converter: converter}
}

// Clean returns a new dataset and the statistics of the pass. The input is not modified.
func (c *DatasetCleaner) Clean(ctx context.Context, in models.Dataset) (models.Dataset, models.CleaningStats) {
	log := logger.FromContext(ctx)
	stats := models.CleaningStats{InitialRows: in.Len()}
	log.Info("Starting data cleaning process", "rows", in.Len())

	// 1. Collections that are URLs.
	rows := make([]models.Record, 0, len(in.Records))
	for _, r := range in.Records {
		if strings.Contains(r.Collection, collectionURLMarker) {
			continue
		}
		rows = append(rows, r.Clone())
	}
	c.addStage(ctx, &stats, models.StageCollectionURL, len(in.Records)-len(rows))

	// 2. Standardize identity fields.
	for i := range rows {
		rows[i].Currency = strings.ToUpper(strings.TrimSpace(rows[i].Currency))
		rows[i].Collection = strings.TrimSpace(rows[i].Collection)
		rows[i].ReferenceCode = strings.TrimSpace(rows[i].ReferenceCode)
	}

	// 3. Dates. Unparsable values become missing.
	for i := range rows {
		if rows[i].RawLifeSpanDate != "" {
			rows[i].LifeSpanDate = utils.ParseDateOrZero(rows[i].RawLifeSpanDate)
		}
		rows[i].RawLifeSpanDate = utils.FormatDate(rows[i].LifeSpanDate)
	}

	// 4. Missing critical values.
	rows, removed := filterRecords(rows, func(r models.Record) bool {
		return r.Price.Valid && r.Collection != "" && r.ReferenceCode != "" && r.HasLifeSpanDate()
	})
	c.addStage(ctx, &stats, models.StageMissingValues, removed)

	// 5. Non-positive prices.
	rows, removed = filterRecords(rows, func(r models.Record) bool {
		return r.Price.Decimal.IsPositive()
	})
	c.addStage(ctx, &stats, models.StageNonPositive, removed)

	// 6. EUR conversion.
	var order []string
	perCurrency := make(map[string]*models.CurrencyStats)
	converted := rows[:0]
	for _, r := range rows {
		r.OriginalPrice = r.Price
		r.OriginalCurrency = r.Currency
		r.ConversionMethod = models.ConversionMethodDirect

		res := c.converter.ConvertRecord(ctx, r)
		cs, ok := perCurrency[r.Currency]
		if !ok {
			cs = &models.CurrencyStats{Currency: r.Currency}
			perCurrency[r.Currency] = cs
			order = append(order, r.Currency)
		}
		cs.Record(res)

		if !res.OK() {
			log.Debug("Row dropped: no trustworthy EUR price", "referenceCode", r.ReferenceCode, "currency", r.Currency, "reason", res.Reason, "detail", res.Detail)
			continue
		}
		r.PriceEUR = decimal.NewNullDecimal(res.PriceEUR)
		r.ConversionPath = res.Path
		converted = append(converted, r)
	}
	c.addStage(ctx, &stats, models.StageConversion, len(rows)-len(converted))
	rows = converted

	for _, code := range order {
		cs := *perCurrency[code]
		stats.Currencies = append(stats.Currencies, cs)
		log.Info("Conversion statistics", "currency", cs.Currency, "successRate", utils.RoundFloat(cs.SuccessRate(), 1), "converted", cs.Converted, "total", cs.Total)
	}

	// 7. Temporal columns.
	for i := range rows {
		rows[i].Year = rows[i].LifeSpanDate.Year()
		rows[i].Quarter = utils.Quarter(rows[i].LifeSpanDate)
	}

	// 8. Unneeded columns.
	out := models.Dataset{Records: rows}
	for _, col := range in.Columns {
		if isDroppedColumn(col) {
			stats.DroppedColumns = append(stats.DroppedColumns, col)
			continue
		}
		out.Columns = append(out.Columns, col)
	}
	if len(stats.DroppedColumns) > 0 {
		for i := range out.Records {
			for _, col := range stats.DroppedColumns {
				delete(out.Records[i].Extra, col)
			}
		}
	}

	stats.FinalRows = out.Len()
	log.Info("Cleaning completed", "rowsRemoved", stats.RowsRemoved(), "removedPercent", utils.RoundFloat(stats.RemovedPercent(), 1), "finalRows", stats.FinalRows)
	return out, stats
}

func (c *DatasetCleaner) addStage(ctx context.Context, stats *models.CleaningStats, stage string, removed int) {
	stats.RemovedByStage = append(stats.RemovedByStage, models.StageCount{Stage: stage, Removed: removed})
	logger.FromContext(ctx).Debug("Cleaning stage complete", "stage", stage, "removed", removed)
}

// filterRecords keeps the records for which keep returns true, reusing the backing array.
func filterRecords(rows []models.Record, keep func(models.Record) bool) ([]models.Record, int) {
	kept := rows[:0]
	for _, r := range rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return kept, len(rows) - len(kept)
}

func isDroppedColumn(name string) bool {
	for _, c := range models.DroppedColumns {
		if c == name {
			return true
		}
	}
	return false
}
