package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	"github.com/paulcha3/group4-BDM-case/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

const schema = `
CREATE TABLE IF NOT EXISTS cleaning_runs (
	id TEXT PRIMARY KEY,
	subject TEXT NOT NULL DEFAULT '',
	source_name TEXT NOT NULL,
	format TEXT NOT NULL,
	initial_rows INTEGER NOT NULL,
	final_rows INTEGER NOT NULL,
	columns_json TEXT NOT NULL DEFAULT '[]',
	stats_json TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cleaned_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	reference_code TEXT NOT NULL,
	collection TEXT NOT NULL,
	currency TEXT NOT NULL,
	price TEXT NOT NULL,
	original_price TEXT,
	original_currency TEXT,
	conversion_method TEXT,
	price_eur TEXT NOT NULL,
	conversion_path TEXT,
	life_span_date TEXT NOT NULL,
	year INTEGER,
	quarter INTEGER,
	extra_json TEXT,
	FOREIGN KEY(run_id) REFERENCES cleaning_runs(id) ON DELETE CASCADE,
	UNIQUE(run_id, row_index)
);

CREATE INDEX IF NOT EXISTS idx_cleaned_records_run ON cleaned_records(run_id);
CREATE INDEX IF NOT EXISTS idx_cleaning_runs_created ON cleaning_runs(created_at);
`

// columnMigration adds a column to databases created before it existed.
type columnMigration struct {
	table, column, definition string
}

var columnMigrations = []columnMigration{
	{"cleaning_runs", "subject", "TEXT NOT NULL DEFAULT ''"},
	{"cleaning_runs", "columns_json", "TEXT NOT NULL DEFAULT '[]'"},
	{"cleaned_records", "conversion_path", "TEXT"},
	{"cleaned_records", "extra_json", "TEXT"},
}

// Open opens the SQLite database at path and ensures the schema.
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	return db, nil
}

// InitDB opens the process-wide database or exits.
func InitDB(databasePath string) {
	db, err := Open(databasePath)
	if err != nil {
		logger.L.Error("Database initialization failed", "error", err)
		stdlog.Fatalf("failed to initialize database at %s: %v", databasePath, err)
	}
	DB = db
}

func migrate(db *sql.DB) error {
	logger.L.Debug("Checking database migrations")
	existing := make(map[string]map[string]bool)
	for _, m := range columnMigrations {
		cols, ok := existing[m.table]
		if !ok {
			var err error
			cols, err = tableColumns(db, m.table)
			if err != nil {
				return err
			}
			existing[m.table] = cols
		}
		if cols[m.column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.definition)
		if _, err := db.Exec(stmt); err != nil {
			logger.L.Error("Error adding column", "table", m.table, "column", m.column, "error", err)
			return fmt.Errorf("failed to add column %s.%s: %w", m.table, m.column, err)
		}
		cols[m.column] = true
		logger.L.Info("Added column", "table", m.table, "column", m.column)
	}
	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query table schema for %s: %w", table, err)
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, notnull, pk int
		var name, dataType string
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info for %s: %w", table, err)
		}
		columnExists[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate column info for %s: %w", table, err)
	}
	return columnExists, nil
}
