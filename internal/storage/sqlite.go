package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when an entity or period has no stored rows
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS companies(
	ticker TEXT PRIMARY KEY,
	name   TEXT,
	sector TEXT
);
CREATE TABLE IF NOT EXISTS observations(
	ticker TEXT NOT NULL,
	period INTEGER NOT NULL,
	metric TEXT NOT NULL,
	value,
	PRIMARY KEY(ticker, period, metric)
);
CREATE INDEX IF NOT EXISTS idx_observations_metric ON observations(metric, period);
`

// OpenSQLite opens a SQLite database and verifies the connection.
// In-memory databases are limited to one connection so every query sees
// the same schema.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", dsn, err)
	}
	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite %q: %w", dsn, err)
	}
	return db, nil
}

// InitSchema creates the tables if they do not exist
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
