package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ImportResult summarises a CSV import
type ImportResult struct {
	Rows      int `json:"rows"`
	Companies int `json:"companies"`
	Skipped   int `json:"skipped"`
}

// ImportCSV loads rows of ticker,period,metric,value[,sector[,name]] in one
// transaction. A header row is detected and skipped. Values are stored as
// given, so placeholders like "N/A" survive and read back as invalid.
func (r *SQLiteRepository) ImportCSV(ctx context.Context, src io.Reader) (ImportResult, error) {
	start := time.Now()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var result ImportResult
	seen := make(map[string]struct{})
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return ImportResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 4 {
			result.Skipped++
			continue
		}

		ticker := strings.TrimSpace(record[0])
		period, perr := strconv.Atoi(strings.TrimSpace(record[1]))
		if perr != nil {
			if line == 1 {
				continue // header
			}
			result.Skipped++
			continue
		}
		metric := strings.TrimSpace(record[2])
		if ticker == "" || metric == "" {
			result.Skipped++
			continue
		}

		if _, ok := seen[ticker]; !ok {
			c := Company{Ticker: ticker}
			if len(record) > 4 {
				c.Sector = strings.TrimSpace(record[4])
			}
			if len(record) > 5 {
				c.Name = strings.TrimSpace(record[5])
			}
			if err := upsertCompany(ctx, tx, c); err != nil {
				return ImportResult{}, fmt.Errorf("line %d: %w", line, err)
			}
			seen[ticker] = struct{}{}
			result.Companies++
		}

		if err := upsertObservation(ctx, tx, ticker, period, metric, storedValue(record[3])); err != nil {
			return ImportResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		result.Rows++
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("CSV import completed",
			"rows", result.Rows,
			"companies", result.Companies,
			"skipped", result.Skipped,
			"latency_ms", time.Since(start).Milliseconds())
	}
	return result, nil
}

// storedValue keeps numbers numeric in SQLite and everything else as text
func storedValue(field string) interface{} {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	return field
}
