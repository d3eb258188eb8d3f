package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/finsim/finsim/internal/analytics/risk"
	"github.com/finsim/finsim/internal/services"
	"github.com/finsim/finsim/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const toolFixture = `ticker,period,metric,value,sector,name
GROW,2020,revenue,100,Tech,Grow Co
GROW,2021,revenue,110
GROW,2022,revenue,121
GROW,2023,revenue,133.1
PEER,2023,revenue,90,Tech,Peer Inc
`

// runTool executes one command against the store at dsn and returns stdout
func runTool(t *testing.T, dsn string, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer

	app := newApp(&toolEnv{})
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"finsim", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "--dsn", dsn}, args...)
	require.NoError(t, app.Run(argv))
	return out.Bytes()
}

func newToolStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FINSIM_STORAGE_DATA_DIR", dir)
	t.Setenv("FINSIM_LOGGING_LEVEL", "error")

	csvPath := filepath.Join(dir, "fixture.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(toolFixture), 0644))

	dsn := filepath.Join(dir, "finsim.db")
	var result storage.ImportResult
	require.NoError(t, json.Unmarshal(runTool(t, dsn, "import", csvPath), &result))
	require.Equal(t, 5, result.Rows)
	require.Equal(t, 2, result.Companies)
	return dsn
}

func TestImportThenTrend(t *testing.T) {
	dsn := newToolStore(t)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(runTool(t, dsn, "trend", "--periods", "4", "GROW"), &report))
	assert.Equal(t, "revenue", report["metric"])
	assert.InDelta(t, 10.0, report["cagr_percent"], 1e-9)
}

func TestProjectCommand(t *testing.T) {
	dsn := newToolStore(t)

	var result services.RunResult
	out := runTool(t, dsn, "project", "--horizon", "2", "--samples", "50", "--seed", "9", "--volatility", "0", "GROW", "revenue")
	require.NoError(t, json.Unmarshal(out, &result))

	assert.Equal(t, uint64(9), result.Seed)
	assert.Equal(t, 0.0, result.Parameters.Volatility)
	// zero volatility collapses every path onto the drift curve
	assert.InDelta(t, result.Terminal.Min, result.Terminal.Max, 1e-9)
}

func TestSimulateCommand(t *testing.T) {
	dsn := newToolStore(t)

	var result services.RunResult
	out := runTool(t, dsn, "simulate", "--initial", "1000", "--drift", "0.05", "--volatility", "0.2",
		"--horizon", "4", "--samples", "80", "--seed", "11")
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, 80, result.Terminal.Count)
	assert.Equal(t, 4, result.Parameters.HorizonPeriods)
	assert.True(t, result.Complete)
}

func TestCompaniesCommand(t *testing.T) {
	dsn := newToolStore(t)

	var companies []storage.Company
	require.NoError(t, json.Unmarshal(runTool(t, dsn, "companies"), &companies))
	require.Len(t, companies, 2)
	assert.Equal(t, "GROW", companies[0].Ticker)
	assert.Equal(t, "Tech", companies[1].Sector)
}

func TestCompareCommand(t *testing.T) {
	dsn := newToolStore(t)

	var result risk.Comparison
	require.NoError(t, json.Unmarshal(runTool(t, dsn, "compare", "GROW", "PEER"), &result))
	assert.Equal(t, 2023, result.Period)
	require.Len(t, result.Metrics, 1)
	assert.InDelta(t, 43.1, *result.Metrics[0].Difference, 1e-9)
	assert.Equal(t, "GROW", result.Metrics[0].Higher)
}

func TestScreenCommand(t *testing.T) {
	dsn := newToolStore(t)

	var result services.ScreenResult
	require.NoError(t, json.Unmarshal(runTool(t, dsn, "screen", "revenue > 100", "revenue<130"), &result))
	assert.Equal(t, []storage.ScreenMatch{{Ticker: "GROW", Period: 2021}, {Ticker: "GROW", Period: 2022}}, result.Matches)

	require.NoError(t, json.Unmarshal(runTool(t, dsn, "screen", "--period", "2023", "revenue >= 90"), &result))
	assert.Equal(t, 2, result.Count)
}
