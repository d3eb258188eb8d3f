package risk

import (
	"errors"
	"testing"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrend(t *testing.T) {
	series := factor("revenue", analytics.RoleGrowth, 2019, 50, 100, 110, 121).Series

	r, err := Trend(series, 3)
	require.NoError(t, err)

	require.Len(t, r.Points, 3)
	assert.Equal(t, 2020, r.Points[0].Period)
	require.Len(t, r.Growth, 2)
	assert.Equal(t, 2020, r.Growth[0].From)
	assert.Equal(t, 2021, r.Growth[0].To)
	assert.InDelta(t, 10, r.Growth[0].Percent.Value, 1e-9)
	assert.InDelta(t, 10, r.Growth[1].Percent.Value, 1e-9)

	assert.True(t, r.CAGRPercent.Defined)
	assert.InDelta(t, 10, r.CAGRPercent.Value, 1e-9)
}

func TestTrend_AllPeriods(t *testing.T) {
	series := factor("revenue", analytics.RoleGrowth, 2019, 50, 100, 110, 121).Series

	r, err := Trend(series, 0)
	require.NoError(t, err)
	assert.Len(t, r.Points, 4)
	assert.InDelta(t, 100, r.Growth[0].Percent.Value, 1e-9)
}

func TestTrend_ZeroStart(t *testing.T) {
	series := factor("net_income", analytics.RoleOther, 2020, 0, 10).Series

	r, err := Trend(series, 5)
	require.NoError(t, err)
	assert.False(t, r.Growth[0].Percent.Defined)
	assert.False(t, r.CAGRPercent.Defined)
}

func TestTrend_InsufficientData(t *testing.T) {
	series := factor("revenue", analytics.RoleGrowth, 2020, 10).Series

	_, err := Trend(series, 5)
	require.ErrorIs(t, err, analytics.ErrInsufficientData)

	var ide *analytics.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 2, ide.Need)
	assert.Equal(t, 1, ide.Have)
}

func TestCAGR_SamePeriod(t *testing.T) {
	a := analytics.Observation{Period: 2020, Value: 10, Valid: true}
	assert.False(t, CAGR(a, a).Defined)
}
