package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/utils"
	"github.com/shopspring/decimal"
)

var ErrRunNotFound = errors.New("cleaning run not found")

// createdAtLayout is fixed-width so stored timestamps sort lexically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CleaningRun is the stored summary of one cleaning pass.
type CleaningRun struct {
	ID          string               `json:"id"`
	Subject     string               `json:"subject,omitempty"`
	SourceName  string               `json:"source_name"`
	Format      string               `json:"format"`
	InitialRows int                  `json:"initial_rows"`
	FinalRows   int                  `json:"final_rows"`
	Columns     []string             `json:"columns"`
	Stats       models.CleaningStats `json:"stats"`
	CreatedAt   time.Time            `json:"created_at"`
}

// InsertRun stores the run summary.
func (r *CleaningRun) InsertRun(ctx context.Context, db DBTX) error {
	statsJSON, err := json.Marshal(r.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}
	columnsJSON, err := json.Marshal(r.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode run columns: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO cleaning_runs (id, subject, source_name, format, initial_rows, final_rows, columns_json, stats_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query, r.ID, r.Subject, r.SourceName, r.Format,
		r.InitialRows, r.FinalRows, string(columnsJSON), string(statsJSON), r.CreatedAt.UTC().Format(createdAtLayout))
	if err != nil {
		return fmt.Errorf("failed to insert cleaning run %s: %w", r.ID, err)
	}
	return nil
}

// InsertRecords stores the cleaned rows of a run in order.
func InsertRecords(ctx context.Context, db DBTX, runID string, records []models.Record) error {
	stmt, err := db.PrepareContext(ctx, `
	INSERT INTO cleaned_records (run_id, row_index, reference_code, collection, currency, price,
		original_price, original_currency, conversion_method, price_eur, conversion_path,
		life_span_date, year, quarter, extra_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var extra sql.NullString
		if len(rec.Extra) > 0 {
			b, err := json.Marshal(rec.Extra)
			if err != nil {
				return fmt.Errorf("failed to encode extra columns of row %d: %w", i, err)
			}
			extra = sql.NullString{String: string(b), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, runID, i, rec.ReferenceCode, rec.Collection, rec.Currency,
			rec.Price.Decimal.String(), nullDecimal(rec.OriginalPrice), rec.OriginalCurrency, rec.ConversionMethod,
			rec.PriceEUR.Decimal.String(), string(rec.ConversionPath), utils.FormatDate(rec.LifeSpanDate),
			rec.Year, rec.Quarter, extra)
		if err != nil {
			return fmt.Errorf("failed to insert row %d of run %s: %w", i, runID, err)
		}
	}
	return nil
}

const runColumns = `id, subject, source_name, format, initial_rows, final_rows, columns_json, stats_json, created_at`

// GetRunByID returns ErrRunNotFound when no run has the id.
func GetRunByID(ctx context.Context, db DBTX, id string) (*CleaningRun, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM cleaning_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func ListRuns(ctx context.Context, db DBTX, limit int) ([]CleaningRun, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` FROM cleaning_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleaning runs: %w", err)
	}
	defer rows.Close()

	var runs []CleaningRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cleaning runs: %w", err)
	}
	return runs, nil
}

// GetRunRecords returns the cleaned rows of a run in their original order.
func GetRunRecords(ctx context.Context, db DBTX, runID string) ([]models.Record, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT reference_code, collection, currency, price, original_price, original_currency,
		conversion_method, price_eur, conversion_path, life_span_date, year, quarter, extra_json
	FROM cleaned_records WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records of run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var (
			rec                  models.Record
			price, priceEUR      decimal.Decimal
			originalPrice        decimal.NullDecimal
			origCurrency, method sql.NullString
			path, extra          sql.NullString
			lifeSpan             string
			year, quarter        sql.NullInt64
		)
		if err := rows.Scan(&rec.ReferenceCode, &rec.Collection, &rec.Currency, &price, &originalPrice,
			&origCurrency, &method, &priceEUR, &path, &lifeSpan, &year, &quarter, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan record of run %s: %w", runID, err)
		}
		rec.Price = decimal.NewNullDecimal(price)
		rec.OriginalPrice = originalPrice
		rec.OriginalCurrency = origCurrency.String
		rec.ConversionMethod = method.String
		rec.PriceEUR = decimal.NewNullDecimal(priceEUR)
		rec.ConversionPath = models.ConversionPath(path.String)
		rec.RawLifeSpanDate = lifeSpan
		rec.LifeSpanDate = utils.ParseDateOrZero(lifeSpan)
		rec.Year = int(year.Int64)
		rec.Quarter = int(quarter.Int64)
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &rec.Extra); err != nil {
				return nil, fmt.Errorf("failed to decode extra columns of run %s: %w", runID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records of run %s: %w", runID, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*CleaningRun, error) {
	var (
		run                    CleaningRun
		columnsJSON, statsJSON string
		createdAt              string
	)
	if err := row.Scan(&run.ID, &run.Subject, &run.SourceName, &run.Format, &run.InitialRows,
		&run.FinalRows, &columnsJSON, &statsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan cleaning run: %w", err)
	}
	if err := json.Unmarshal([]byte(columnsJSON), &run.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats of run %s: %w", run.ID, err)
	}
	run.CreatedAt = parseCreatedAt(createdAt)
	return &run, nil
}

func parseCreatedAt(s string) time.Time {
	for _, layout := range []string{createdAtLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return utils.ParseDateOrZero(s)
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
