package parsers

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Supported input formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// GetParser returns the parser for format. An empty format means CSV.
func GetParser(format string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return NewCSVParser(), nil
	case FormatJSONL, "ndjson", "json":
		return NewJSONLParser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// FormatFromFilename guesses the input format from a file extension.
func FormatFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatCSV
	}
}
