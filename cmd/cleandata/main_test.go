package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulcha3/group4-BDM-case/src/database"
	"github.com/paulcha3/group4-BDM-case/src/model"
	"github.com/paulcha3/group4-BDM-case/src/report"
)

const inputCSV = `reference_code,collection,currency,price,life_span_date,price_before
R1,Women,USD,10000,2023-03-01,9000
R2,Women,EUR,500,2023-03-01,400
R3,HTTPS://x,EUR,5000,2023-03-01,
R4,Men,GBP,=1+1,2023-03-01,
`

const ratesJSON = `{"root":{"Obs":[{"_TIME_PERIOD":"2023-03-01","_OBS_VALUE":"1.06","_CCY":"USD"}]}}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	if _, err := parseFlags(nil, io.Discard); err == nil {
		t.Error("expected error without -input")
	}
	o, err := parseFlags([]string{"-input", "a.jsonl", "-sanitize", "-lookback", "3"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if o.input != "a.jsonl" || !o.sanitize || o.lookback != 3 || o.output != "cleaned_products.csv" {
		t.Errorf("options = %+v", o)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	o := options{
		input:  writeFile(t, dir, "products.csv", inputCSV),
		rates:  writeFile(t, dir, "rates.json", ratesJSON),
		output: filepath.Join(dir, "clean.csv"),
		sqlite: filepath.Join(dir, "runs.db"),
		report: filepath.Join(dir, "report.yaml"),
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), o, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "4 -> 1 rows") || !strings.Contains(stdout.String(), "| USD") {
		t.Errorf("stdout = %s", stdout.String())
	}

	out, err := os.ReadFile(o.output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 || strings.Contains(lines[0], "price_before") || !strings.HasPrefix(lines[1], "R1,") {
		t.Errorf("output = %q", out)
	}

	rep, err := report.Load(o.report)
	if err != nil {
		t.Fatal(err)
	}
	usd, ok := rep.Stats.Currency("USD")
	if !ok || usd.ViaHistorical != 1 {
		t.Errorf("USD stats = %+v", usd)
	}
	if len(rep.Stats.DroppedColumns) != 1 || rep.Stats.DroppedColumns[0] != "price_before" {
		t.Errorf("dropped = %v", rep.Stats.DroppedColumns)
	}

	db, err := database.Open(o.sqlite)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stored, err := model.GetRunByID(context.Background(), db, rep.RunID)
	if err != nil || stored.FinalRows != 1 || stored.Subject != "cli" {
		t.Errorf("stored run = %+v, %v", stored, err)
	}
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	err := run(context.Background(), options{input: filepath.Join(dir, "none.csv"), output: filepath.Join(dir, "o.csv")}, io.Discard)
	if err == nil {
		t.Error("expected error for missing input")
	}
}
