package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/finsim/finsim/internal/analytics/risk"
	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/utils"
)

// Metric names of the statement values a ratio snapshot reads
const (
	MetricRevenue            = "revenue"
	MetricNetIncome          = "net_income"
	MetricGrossProfit        = "gross_profit"
	MetricOperatingIncome    = "operating_income"
	MetricEBITDA             = "ebitda"
	MetricTotalAssets        = "total_assets"
	MetricTotalLiabilities   = "total_liabilities"
	MetricShareholdersEquity = "shareholders_equity"
	MetricCurrentAssets      = "current_assets"
	MetricCurrentLiabilities = "current_liabilities"
	MetricLongTermDebt       = "long_term_debt"
)

const (
	upsertCompanySQL = `INSERT INTO companies(ticker, name, sector) VALUES(?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
		  name = COALESCE(NULLIF(excluded.name, ''), companies.name),
		  sector = COALESCE(NULLIF(excluded.sector, ''), companies.sector)`

	upsertObservationSQL = `INSERT INTO observations(ticker, period, metric, value) VALUES(?, ?, ?, ?)
		ON CONFLICT(ticker, period, metric) DO UPDATE SET value = excluded.value`
)

// Company is a row of the companies table
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// SectorValue is one company's value in a sector cross-section
type SectorValue struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// CrossSection is one metric across all companies of a sector
type CrossSection struct {
	Sector  string        `json:"sector"`
	Metric  string        `json:"metric"`
	Period  int           `json:"period"`
	Values  []SectorValue `json:"values"`
	Skipped int           `json:"skipped"`
}

// SQLiteRepository reads and writes historical statement data
type SQLiteRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewSQLiteRepository wraps an open database
func NewSQLiteRepository(db *sql.DB, logger *logging.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: logger}
}

// Close closes the underlying database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// upsertCompany inserts a company row; empty fields keep stored values
func upsertCompany(ctx context.Context, ex execer, c Company) error {
	if _, err := ex.ExecContext(ctx, upsertCompanySQL, c.Ticker, c.Name, c.Sector); err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", c.Ticker, err)
	}
	return nil
}

// upsertObservation stores one value. value may be a number, numeric text,
// a placeholder such as "N/A", or nil.
func upsertObservation(ctx context.Context, ex execer, ticker string, period int, metric string, value interface{}) error {
	if _, err := ex.ExecContext(ctx, upsertObservationSQL, ticker, period, metric, value); err != nil {
		return fmt.Errorf("failed to upsert %s/%s/%d: %w", ticker, metric, period, err)
	}
	return nil
}

// FetchSeries returns every stored observation of metric for entity,
// ascending by period. Unparsable values come back with Valid=false.
func (r *SQLiteRepository) FetchSeries(ctx context.Context, entity, metric string) (analytics.HistoricalSeries, error) {
	if err := r.requireEntity(ctx, entity); err != nil {
		return analytics.HistoricalSeries{}, err
	}

	obs, err := r.queryObservations(ctx,
		`SELECT period, value FROM observations WHERE ticker = ? AND metric = ? ORDER BY period ASC`,
		entity, metric)
	if err != nil {
		return analytics.HistoricalSeries{}, err
	}
	return analytics.NewHistoricalSeries(entity, metric, obs), nil
}

// FetchWindow returns the factors over the most recent windowSize periods in
// which any of them has a row. Roles are left as RoleOther.
func (r *SQLiteRepository) FetchWindow(ctx context.Context, entity string, factors []string, windowSize int) (analytics.Window, error) {
	if err := r.requireEntity(ctx, entity); err != nil {
		return analytics.Window{}, err
	}
	if len(factors) == 0 || windowSize <= 0 {
		return analytics.Window{Entity: entity}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(factors)), ",")
	args := make([]interface{}, 0, len(factors)+2)
	args = append(args, entity)
	for _, f := range factors {
		args = append(args, f)
	}
	args = append(args, windowSize)

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT period FROM observations
		 WHERE ticker = ? AND metric IN (`+placeholders+`)
		 ORDER BY period DESC LIMIT ?`, args...)
	if err != nil {
		return analytics.Window{}, fmt.Errorf("failed to query window periods: %w", err)
	}
	var periods []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return analytics.Window{}, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return analytics.Window{}, fmt.Errorf("failed to read window periods: %w", err)
	}

	// descending from the query
	for i, j := 0, len(periods)-1; i < j; i, j = i+1, j-1 {
		periods[i], periods[j] = periods[j], periods[i]
	}

	w := analytics.Window{Entity: entity, Periods: periods, Factors: make([]analytics.FactorSeries, 0, len(factors))}
	if len(periods) == 0 {
		return w, nil
	}

	for _, f := range factors {
		obs, err := r.queryObservations(ctx,
			`SELECT period, value FROM observations
			 WHERE ticker = ? AND metric = ? AND period >= ? AND period <= ?
			 ORDER BY period ASC`,
			entity, f, periods[0], periods[len(periods)-1])
		if err != nil {
			return analytics.Window{}, err
		}
		w.Factors = append(w.Factors, analytics.FactorSeries{
			Name:   f,
			Series: analytics.NewHistoricalSeries(entity, f, obs),
		})
	}
	return w, nil
}

// FetchPeriod returns every metric stored for entity in period.
// period <= 0 selects the most recent period.
func (r *SQLiteRepository) FetchPeriod(ctx context.Context, entity string, period int) (int, map[string]analytics.Observation, error) {
	if err := r.requireEntity(ctx, entity); err != nil {
		return 0, nil, err
	}
	if period <= 0 {
		latest, err := r.latestPeriod(ctx, `SELECT MAX(period) FROM observations WHERE ticker = ?`, entity)
		if err != nil {
			return 0, nil, err
		}
		period = latest
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT metric, value FROM observations WHERE ticker = ? AND period = ?`, entity, period)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to query period: %w", err)
	}
	defer rows.Close()

	metrics := make(map[string]analytics.Observation)
	for rows.Next() {
		var metric string
		var raw interface{}
		if err := rows.Scan(&metric, &raw); err != nil {
			return 0, nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		v, ok := utils.ParseNumeric(raw)
		metrics[metric] = analytics.Observation{Period: period, Value: v, Valid: ok}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("failed to read period: %w", err)
	}
	if len(metrics) == 0 {
		return 0, nil, fmt.Errorf("%s period %d: %w", entity, period, ErrNotFound)
	}
	return period, metrics, nil
}

// FetchSnapshot returns the statement values ratio computation needs
func (r *SQLiteRepository) FetchSnapshot(ctx context.Context, entity string, period int) (risk.Snapshot, error) {
	period, m, err := r.FetchPeriod(ctx, entity, period)
	if err != nil {
		return risk.Snapshot{}, err
	}
	return risk.Snapshot{
		Entity:             entity,
		Period:             period,
		Revenue:            m[MetricRevenue],
		NetIncome:          m[MetricNetIncome],
		GrossProfit:        m[MetricGrossProfit],
		OperatingIncome:    m[MetricOperatingIncome],
		EBITDA:             m[MetricEBITDA],
		TotalAssets:        m[MetricTotalAssets],
		TotalLiabilities:   m[MetricTotalLiabilities],
		ShareholdersEquity: m[MetricShareholdersEquity],
		CurrentAssets:      m[MetricCurrentAssets],
		CurrentLiabilities: m[MetricCurrentLiabilities],
		LongTermDebt:       m[MetricLongTermDebt],
	}, nil
}

// FetchCrossSection returns metric for every company of sector in period.
// period <= 0 selects the most recent period with data for that sector.
func (r *SQLiteRepository) FetchCrossSection(ctx context.Context, sector, metric string, period int) (CrossSection, error) {
	if period <= 0 {
		latest, err := r.latestPeriod(ctx,
			`SELECT MAX(o.period) FROM observations o JOIN companies c ON c.ticker = o.ticker
			 WHERE c.sector = ? AND o.metric = ?`, sector, metric)
		if err != nil {
			return CrossSection{}, err
		}
		period = latest
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT o.ticker, o.value FROM observations o JOIN companies c ON c.ticker = o.ticker
		 WHERE c.sector = ? AND o.metric = ? AND o.period = ?
		 ORDER BY o.ticker ASC`, sector, metric, period)
	if err != nil {
		return CrossSection{}, fmt.Errorf("failed to query cross-section: %w", err)
	}
	defer rows.Close()

	cs := CrossSection{Sector: sector, Metric: metric, Period: period, Values: []SectorValue{}}
	for rows.Next() {
		var ticker string
		var raw interface{}
		if err := rows.Scan(&ticker, &raw); err != nil {
			return CrossSection{}, fmt.Errorf("failed to scan cross-section: %w", err)
		}
		v, ok := utils.ParseNumeric(raw)
		if !ok {
			cs.Skipped++
			continue
		}
		cs.Values = append(cs.Values, SectorValue{Ticker: ticker, Value: v})
	}
	if err := rows.Err(); err != nil {
		return CrossSection{}, fmt.Errorf("failed to read cross-section: %w", err)
	}
	return cs, nil
}

// ListCompanies returns all companies ordered by ticker
func (r *SQLiteRepository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ticker, COALESCE(name, ''), COALESCE(sector, '') FROM companies ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.Ticker, &c.Name, &c.Sector); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) queryObservations(ctx context.Context, query string, args ...interface{}) ([]analytics.Observation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var obs []analytics.Observation
	invalid := 0
	for rows.Next() {
		var period int
		var raw interface{}
		if err := rows.Scan(&period, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		v, ok := utils.ParseNumeric(raw)
		if !ok {
			invalid++
		}
		obs = append(obs, analytics.Observation{Period: period, Value: v, Valid: ok})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}

	if invalid > 0 && r.logger != nil {
		r.logger.Debug("Non-numeric observations marked invalid",
			"rows", len(obs),
			"invalid", invalid)
	}
	return obs, nil
}

func (r *SQLiteRepository) requireEntity(ctx context.Context, entity string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 WHERE EXISTS (SELECT 1 FROM companies WHERE ticker = ?)
		    OR EXISTS (SELECT 1 FROM observations WHERE ticker = ?)`,
		entity, entity).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("entity %s: %w", entity, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up entity %s: %w", entity, err)
	}
	return nil
}

func (r *SQLiteRepository) latestPeriod(ctx context.Context, query string, args ...interface{}) (int, error) {
	var latest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return 0, fmt.Errorf("failed to query latest period: %w", err)
	}
	if !latest.Valid {
		return 0, fmt.Errorf("no periods for %v: %w", args, ErrNotFound)
	}
	return int(latest.Int64), nil
}
