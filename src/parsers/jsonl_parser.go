package parsers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/models"
)

var errNotObject = errors.New("line is not a JSON object")

// JSONLParser reads one JSON object per line. Columns are the union of keys in order of
// first appearance. Lines that are not valid objects are skipped.
type JSONLParser struct {
	MaxLineBytes int
}

func NewJSONLParser() *JSONLParser {
	return &JSONLParser{MaxLineBytes: 20 * 1024 * 1024}
}

func (p *JSONLParser) Parse(file io.Reader) (models.Dataset, error) {
	sc := bufio.NewScanner(file)
	buf := make([]byte, 0, 1024*1024)
	sc.Buffer(buf, p.MaxLineBytes)

	var (
		columns []string
		seen    = map[string]bool{}
		rows    []map[string]string
		line    int
		invalid int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		keys, values, err := decodeObject([]byte(text))
		if err != nil {
			invalid++
			logger.L.Warn("Skipping invalid JSONL line", "line", line, "error", err)
			continue
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		rows = append(rows, values)
	}
	if err := sc.Err(); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read JSONL input: %w", err)
	}

	if err := checkRequiredColumns(columns); err != nil {
		return models.Dataset{}, err
	}

	ds := models.Dataset{Columns: passThroughColumns(columns)}
	for _, values := range rows {
		ds.Records = append(ds.Records, buildRecord(values))
	}
	logger.L.Debug("JSONL parsed", "rows", ds.Len(), "columns", len(ds.Columns), "invalidLines", invalid)
	return ds, nil
}

// decodeObject returns the keys of a flat JSON object in document order together with
// their values rendered as text. null becomes the empty string; nested values are kept
// as compact JSON.
func decodeObject(data []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errNotObject
	}

	var keys []string
	values := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := normalizeHeader(tok.(string))

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = scalarText(raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case raw[0] == '{' || raw[0] == '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err == nil {
			return compact.String()
		}
	}
	return string(raw)
}
