package projection

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_ZeroVolatilityIsDeterministic(t *testing.T) {
	params := SimulationParameters{
		InitialValue:   1000,
		Drift:          0.05,
		Volatility:     0,
		HorizonPeriods: 10,
		SampleCount:    25,
	}

	for _, seed := range []uint64{1, 99, 123456} {
		ens, err := Simulate(params, NewSource(seed))
		require.NoError(t, err)
		require.Len(t, ens.Paths, params.SampleCount)

		for _, path := range ens.Paths {
			require.Len(t, path, params.HorizonPeriods+1)
			for step, v := range path {
				expected := params.InitialValue * math.Exp(params.Drift*float64(step))
				assert.InEpsilon(t, expected, v, 1e-12, "step %d", step)
			}
		}
	}
}

func TestSimulate_Reproducible(t *testing.T) {
	params := SimulationParameters{
		InitialValue:   500,
		Drift:          0.12,
		Volatility:     0.4,
		HorizonPeriods: 5,
		SampleCount:    200,
	}

	a, err := Simulate(params, NewSource(2024))
	require.NoError(t, err)
	b, err := Simulate(params, NewSource(2024))
	require.NoError(t, err)
	assert.Equal(t, a.Paths, b.Paths)

	c, err := Simulate(params, NewSource(2025))
	require.NoError(t, err)
	assert.NotEqual(t, a.Paths, c.Paths)
}

func TestSimulate_PathShape(t *testing.T) {
	params := SimulationParameters{InitialValue: 42, Drift: 0.01, Volatility: 0.3, HorizonPeriods: 7, SampleCount: 3}

	ens, err := Simulate(params, NewSource(5))
	require.NoError(t, err)
	assert.True(t, ens.Complete)
	for _, p := range ens.Paths {
		assert.Len(t, p, 8)
		assert.Equal(t, 42.0, p[0])
		for _, v := range p {
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestSimulate_InvalidParameters(t *testing.T) {
	valid := SimulationParameters{InitialValue: 100, Drift: 0.05, Volatility: 0.2, HorizonPeriods: 5, SampleCount: 10}

	tests := []struct {
		name   string
		mutate func(p *SimulationParameters)
		field  string
	}{
		{"zero initial value", func(p *SimulationParameters) { p.InitialValue = 0 }, "initial_value"},
		{"negative initial value", func(p *SimulationParameters) { p.InitialValue = -1 }, "initial_value"},
		{"NaN initial value", func(p *SimulationParameters) { p.InitialValue = math.NaN() }, "initial_value"},
		{"zero samples", func(p *SimulationParameters) { p.SampleCount = 0 }, "sample_count"},
		{"zero horizon", func(p *SimulationParameters) { p.HorizonPeriods = 0 }, "horizon_periods"},
		{"negative volatility", func(p *SimulationParameters) { p.Volatility = -0.1 }, "volatility"},
		{"infinite drift", func(p *SimulationParameters) { p.Drift = math.Inf(1) }, "drift"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			ens, err := Simulate(p, NewSource(1))
			assert.Nil(t, ens)
			require.ErrorIs(t, err, analytics.ErrInvalidParameter)

			var ipe *analytics.InvalidParameterError
			require.True(t, errors.As(err, &ipe))
			assert.Equal(t, tt.field, ipe.Field)

			ens, err = RunSimulation(context.Background(), p, 1, RunOptions{})
			assert.Nil(t, ens)
			assert.ErrorIs(t, err, analytics.ErrInvalidParameter)
		})
	}
}

func TestRunSimulation_IndependentOfWorkerCount(t *testing.T) {
	params := SimulationParameters{
		InitialValue:   1000,
		Drift:          0.08,
		Volatility:     0.15,
		HorizonPeriods: 5,
		SampleCount:    2500,
	}

	base, err := RunSimulation(context.Background(), params, 7, RunOptions{Workers: 1, BatchSize: 2500})
	require.NoError(t, err)
	require.True(t, base.Complete)

	for _, opts := range []RunOptions{
		{Workers: 2, BatchSize: 100},
		{Workers: 8, BatchSize: 333},
		{Workers: 3, BatchSize: 1},
		{},
	} {
		ens, err := RunSimulation(context.Background(), params, 7, opts)
		require.NoError(t, err)
		assert.True(t, ens.Complete)
		assert.Equal(t, uint64(7), ens.Seed)
		assert.Equal(t, base.Paths, ens.Paths, "workers=%d batch=%d", opts.Workers, opts.BatchSize)
	}
}

func TestRunSimulation_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		initial     float64
		drift       float64
		volatility  float64
		theoretical float64 // initial * exp(drift * 5)
		median      float64 // initial * exp((drift - vol^2/2) * 5)
		growthPct   float64 // Phi((drift - vol^2/2) * sqrt(5) / vol)
		outlook     Outlook
	}{
		{"stable growth", 1000, 0.08, 0.15, 1491.82, 1410.24, 84.7, OutlookHigh},
		{"high volatility", 500, 0.12, 0.40, 911.06, 610.70, 58.8, OutlookModerate},
		{"defensive", 2000, 0.04, 0.10, 2442.81, 2382.49, 78.3, OutlookHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := SimulationParameters{
				InitialValue:   tt.initial,
				Drift:          tt.drift,
				Volatility:     tt.volatility,
				HorizonPeriods: 5,
				SampleCount:    5000,
			}

			ens, err := RunSimulation(context.Background(), params, 20240601, RunOptions{Workers: 4})
			require.NoError(t, err)

			stats, err := Summarize(ens)
			require.NoError(t, err)

			theoretical := tt.initial * math.Exp(tt.drift*5)
			assert.InDelta(t, tt.theoretical, theoretical, 0.01)
			assert.InEpsilon(t, theoretical, stats.Mean, 0.10)
			assert.InEpsilon(t, tt.median, stats.Median, 0.10)
			assert.InDelta(t, tt.growthPct, stats.GrowthProbabilityPercent, 5)

			assert.Less(t, stats.P5, stats.P25)
			assert.Less(t, stats.P25, stats.Median)
			assert.Less(t, stats.Median, stats.P75)
			assert.Less(t, stats.P75, stats.P95)

			report := BuildReport(params, stats, nil)
			assert.True(t, report.Consistent)
			assert.Equal(t, tt.outlook, report.Outlook)
		})
	}
}

func TestRunSimulation_CancelledReturnsPartial(t *testing.T) {
	params := SimulationParameters{InitialValue: 10, Drift: 0, Volatility: 0.1, HorizonPeriods: 3, SampleCount: 100}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ens, err := RunSimulation(ctx, params, 1, RunOptions{Workers: 2, BatchSize: 10})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, ens)
	assert.False(t, ens.Complete)
	assert.Empty(t, ens.Paths)

	_, err = Summarize(ens)
	assert.ErrorIs(t, err, analytics.ErrEmptyEnsemble)
}

// stopAfterChecks cancels itself once Err has been consulted limit times,
// which stops a single-worker run at a known path index.
type stopAfterChecks struct {
	context.Context
	cancel context.CancelFunc
	limit  int64
	checks atomic.Int64
}

func newStopAfterChecks(limit int64) *stopAfterChecks {
	ctx, cancel := context.WithCancel(context.Background())
	return &stopAfterChecks{Context: ctx, cancel: cancel, limit: limit}
}

func (c *stopAfterChecks) Err() error {
	if c.checks.Add(1) > c.limit {
		c.cancel()
	}
	return c.Context.Err()
}

func TestRunSimulation_CancelledMidRunKeepsCompletedBatches(t *testing.T) {
	params := SimulationParameters{InitialValue: 10, Drift: 0.02, Volatility: 0.3, HorizonPeriods: 4, SampleCount: 100}

	full, err := RunSimulation(context.Background(), params, 5, RunOptions{Workers: 1, BatchSize: 10})
	require.NoError(t, err)

	// two batches of ten pass their per-path checks, the third is cut short
	ctx := newStopAfterChecks(24)
	defer ctx.cancel()

	ens, err := RunSimulation(ctx, params, 5, RunOptions{Workers: 1, BatchSize: 10})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, ens)
	assert.False(t, ens.Complete)
	assert.Greater(t, len(ens.Paths), 0)
	assert.Less(t, len(ens.Paths), params.SampleCount)
	require.Len(t, ens.Paths, 20)

	for i, p := range ens.Paths {
		assert.Equal(t, full.Paths[i], p, "path %d", i)
	}

	stats, err := Summarize(ens)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Count)
}

func BenchmarkRunSimulation(b *testing.B) {
	params := SimulationParameters{
		InitialValue:   1000,
		Drift:          0.08,
		Volatility:     0.15,
		HorizonPeriods: 20,
		SampleCount:    10000,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = RunSimulation(context.Background(), params, uint64(i), RunOptions{})
	}
}
