package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/models"
)

// CSVParser reads a product table with a header row.
type CSVParser struct {
	Comma rune
}

func NewCSVParser() *CSVParser {
	return &CSVParser{Comma: ','}
}

func (p *CSVParser) Parse(file io.Reader) (models.Dataset, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return models.Dataset{}, fmt.Errorf("%w: file has no header row", ErrMissingColumns)
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h)
	}
	if err := checkRequiredColumns(columns); err != nil {
		return models.Dataset{}, err
	}

	ds := models.Dataset{Columns: passThroughColumns(columns)}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return models.Dataset{}, fmt.Errorf("failed to read CSV record on line %d: %w", line, err)
		}
		if len(record) != len(columns) {
			logger.L.Debug("CSV record has unexpected field count", "line", line, "fields", len(record), "columns", len(columns))
		}

		values := make(map[string]string, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if _, dup := values[col]; dup {
				continue
			}
			if i < len(record) {
				values[col] = record[i]
			} else {
				values[col] = ""
			}
		}
		ds.Records = append(ds.Records, buildRecord(values))
	}

	logger.L.Debug("CSV parsed", "rows", ds.Len(), "columns", len(ds.Columns))
	return ds, nil
}
