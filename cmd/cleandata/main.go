// Command cleandata cleans a product table file and writes the EUR-priced result as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/config"
	"github.com/paulcha3/group4-BDM-case/src/database"
	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/parsers"
	"github.com/paulcha3/group4-BDM-case/src/processors"
	"github.com/paulcha3/group4-BDM-case/src/report"
	"github.com/paulcha3/group4-BDM-case/src/services"
)

type options struct {
	input    string
	format   string
	output   string
	sqlite   string
	report   string
	rates    string
	lookback int
	sanitize bool
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := config.FromEnv()
	var o options
	fs := flag.NewFlagSet("cleandata", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "input", "", "Input product table (CSV or JSON Lines)")
	fs.StringVar(&o.format, "format", "", "Input format: csv or jsonl (default from file extension)")
	fs.StringVar(&o.output, "output", "cleaned_products.csv", "Cleaned CSV output path")
	fs.StringVar(&o.sqlite, "sqlite", "", "Optional SQLite database to store the run in")
	fs.StringVar(&o.report, "report", "", "Optional YAML run report path")
	fs.StringVar(&o.rates, "rates", "", "Optional ECB historical rates JSON file")
	fs.IntVar(&o.lookback, "lookback", defaults.HistoricalLookbackDays, "Days to look back for a historical rate")
	fs.BoolVar(&o.sanitize, "sanitize", false, "Neutralise spreadsheet formulas in the CSV output")
	fs.StringVar(&o.logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.input == "" {
		return o, errors.New("-input is required")
	}
	return o, nil
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	start := time.Now()

	var provider processors.HistoricalRateProvider
	if o.rates != "" {
		store, err := processors.LoadHistoricalRates(o.rates, o.lookback)
		if err != nil {
			return err
		}
		provider = store
	}
	cleaner := processors.NewDatasetCleaner(processors.NewPriceConverter(provider, processors.DefaultFallbackRates()))

	dbPath := o.sqlite
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	in, err := os.Open(o.input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	svc := services.NewCleaningService(db, cleaner, nil, nil)
	res, err := svc.CleanDataset(ctx, services.CleanRequest{
		Source:     in,
		SourceName: o.input,
		Format:     o.format,
		Subject:    "cli",
	})
	if err != nil {
		return err
	}

	out, err := os.Create(o.output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := parsers.NewCSVWriter(o.sanitize).Write(out, res.Dataset); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	if o.report != "" {
		rep := report.NewRunReport(res.Run.ID, o.input, res.Run.Format, o.output, res.Run.Stats, res.Run.CreatedAt)
		if err := rep.Save(o.report); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Run %s: %d -> %d rows in %s\n\n", res.Run.ID, res.Run.InitialRows, res.Run.FinalRows, time.Since(start).Round(time.Millisecond))
	return report.WriteSummary(stdout, res.Run.Stats)
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.InitLogger(o.logLevel, "text")

	if err := run(context.Background(), o, os.Stdout); err != nil {
		logger.L.Error("Cleaning failed", "input", o.input, "error", err)
		os.Exit(1)
	}
}
