package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/finsim/finsim/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCSV = `ticker,period,metric,value,sector,name
ACME,2020,revenue,100,Industrials,Acme Corp
ACME,2021,revenue,110
ACME,2022,revenue,N/A
ACME,2023,revenue,133.1
ACME,2021,total_assets,1000
ACME,2022,total_assets,1050
ACME,2023,total_assets,1100
ACME,2021,total_liabilities,600
ACME,2022,total_liabilities,620
ACME,2023,total_liabilities,640
ACME,2023,net_income,13.31
ACME,2023,current_assets,300
ACME,2023,current_liabilities,0
BOLT,2023,revenue,50,Industrials,Bolt Inc
CORE,2023,revenue,N/A,Industrials,Core Ltd
DYNA,2023,revenue,75,Utilities,Dyna Power
`

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitSchema(ctx, db))

	repo := NewSQLiteRepository(db, logging.NewWithWriter(&strings.Builder{}, zerolog.Disabled))
	t.Cleanup(func() { _ = repo.Close() })

	result, err := repo.ImportCSV(ctx, strings.NewReader(fixtureCSV))
	require.NoError(t, err)
	require.Equal(t, 16, result.Rows)
	require.Equal(t, 4, result.Companies)
	return repo
}

func TestFetchSeries(t *testing.T) {
	repo := newTestRepository(t)

	s, err := repo.FetchSeries(context.Background(), "ACME", "revenue")
	require.NoError(t, err)

	assert.Equal(t, []int{2020, 2021, 2022, 2023}, s.Periods())
	assert.False(t, s.Observations[2].Valid)
	assert.True(t, s.Observations[3].Valid)
	assert.Equal(t, 133.1, s.Observations[3].Value)
	assert.Equal(t, 3, s.Clean().Len())
}

func TestFetchSeries_UnknownEntity(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FetchSeries(context.Background(), "NOPE", "revenue")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchSeries_KnownEntityMissingMetric(t *testing.T) {
	repo := newTestRepository(t)

	s, err := repo.FetchSeries(context.Background(), "BOLT", "total_assets")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestFetchWindow(t *testing.T) {
	repo := newTestRepository(t)

	w, err := repo.FetchWindow(context.Background(), "ACME",
		[]string{"total_assets", "total_liabilities", "revenue"}, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{2021, 2022, 2023}, w.Periods)
	require.Len(t, w.Factors, 3)
	assert.Equal(t, "total_assets", w.Factors[0].Name)
	assert.Equal(t, analytics.RoleOther, w.Factors[0].Role)
	assert.Equal(t, []float64{1000, 1050, 1100}, w.Factors[0].Series.Values())

	// 2020 revenue is outside the window
	assert.Equal(t, []int{2021, 2022, 2023}, w.Factors[2].Series.Periods())
}

func TestFetchSnapshot(t *testing.T) {
	repo := newTestRepository(t)

	snap, err := repo.FetchSnapshot(context.Background(), "ACME", 0)
	require.NoError(t, err)

	assert.Equal(t, 2023, snap.Period)
	assert.True(t, snap.Revenue.Usable())
	assert.Equal(t, 1100.0, snap.TotalAssets.Value)
	assert.True(t, snap.CurrentLiabilities.Usable())
	assert.False(t, snap.EBITDA.Valid)

	_, err = repo.FetchSnapshot(context.Background(), "ACME", 1999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchCrossSection(t *testing.T) {
	repo := newTestRepository(t)

	cs, err := repo.FetchCrossSection(context.Background(), "Industrials", "revenue", 0)
	require.NoError(t, err)

	assert.Equal(t, 2023, cs.Period)
	assert.Equal(t, []SectorValue{{Ticker: "ACME", Value: 133.1}, {Ticker: "BOLT", Value: 50}}, cs.Values)
	assert.Equal(t, 1, cs.Skipped)

	_, err = repo.FetchCrossSection(context.Background(), "Nothing", "revenue", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportCSV_UpsertKeepsExistingFields(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	result, err := repo.ImportCSV(ctx, strings.NewReader("BOLT,2024,revenue,60,Energy\nBOLT,2023,revenue,55\n"))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Rows: 2, Companies: 1}, result)

	companies, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 4)
	assert.Equal(t, Company{Ticker: "BOLT", Name: "Bolt Inc", Sector: "Energy"}, companies[1])

	s, err := repo.FetchSeries(ctx, "BOLT", "revenue")
	require.NoError(t, err)
	assert.Equal(t, []float64{55, 60}, s.Values())
}

func TestUpsertObservation_OnDB(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, upsertCompany(ctx, repo.db, Company{Ticker: "EDGE", Name: "Edge Co"}))
	require.NoError(t, upsertObservation(ctx, repo.db, "EDGE", 2024, MetricRevenue, "N/A"))

	s, err := repo.FetchSeries(ctx, "EDGE", MetricRevenue)
	require.NoError(t, err)
	require.Len(t, s.Observations, 1)
	assert.False(t, s.Observations[0].Valid)
}

func TestImportCSV_SkipsMalformedRows(t *testing.T) {
	repo := newTestRepository(t)

	result, err := repo.ImportCSV(context.Background(), strings.NewReader("ticker,period,metric,value\nACME,x,revenue,1\nACME,2024\n,2024,revenue,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)
	assert.Equal(t, 3, result.Skipped)
}
