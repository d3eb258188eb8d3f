package analytics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistoricalSeries_SortsAndCopies(t *testing.T) {
	input := []Observation{
		{Period: 2023, Value: 3, Valid: true},
		{Period: 2021, Value: 1, Valid: true},
		{Period: 2022, Value: 2, Valid: true},
	}

	s := NewHistoricalSeries("ACME", "revenue", input)
	assert.Equal(t, []int{2021, 2022, 2023}, s.Periods())
	assert.Equal(t, []float64{1, 2, 3}, s.Values())

	// input is untouched
	assert.Equal(t, 2023, input[0].Period)
}

func TestHistoricalSeries_Clean(t *testing.T) {
	s := NewHistoricalSeries("ACME", "revenue", []Observation{
		{Period: 1, Value: 10, Valid: true},
		{Period: 2, Value: 0, Valid: false},
		{Period: 3, Value: math.NaN(), Valid: true},
		{Period: 4, Value: math.Inf(1), Valid: true},
		{Period: 5, Value: -2, Valid: true},
	})

	clean := s.Clean()
	assert.Equal(t, []int{1, 5}, clean.Periods())
	assert.Equal(t, "ACME", clean.Entity)
	assert.Equal(t, 5, s.Len())

	last, ok := clean.Latest()
	require.True(t, ok)
	assert.Equal(t, -2.0, last.Value)

	_, ok = HistoricalSeries{}.Latest()
	assert.False(t, ok)
}

func TestHistoricalSeries_At(t *testing.T) {
	s := NewHistoricalSeries("", "", []Observation{{Period: 7, Value: 1, Valid: true}})

	o, ok := s.At(7)
	require.True(t, ok)
	assert.Equal(t, 1.0, o.Value)

	_, ok = s.At(8)
	assert.False(t, ok)
}

func TestWindow(t *testing.T) {
	w := Window{
		Periods: []int{2022, 2023},
		Factors: []FactorSeries{
			{Name: "revenue", Role: RoleGrowth},
			{Name: "total_assets", Role: RoleAssets},
		},
	}

	p, ok := w.LatestPeriod()
	require.True(t, ok)
	assert.Equal(t, 2023, p)

	f, ok := w.FactorByRole(RoleAssets)
	require.True(t, ok)
	assert.Equal(t, "total_assets", f.Name)

	_, ok = w.FactorByRole(RoleLiabilities)
	assert.False(t, ok)

	_, ok = Window{}.LatestPeriod()
	assert.False(t, ok)

	assert.Equal(t, "liabilities", RoleLiabilities.String())
}

func TestMeanAndPopStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, PopStdDev(nil))

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 5.0, Mean(values))
	assert.Equal(t, 2.0, PopStdDev(values))
}

func TestRatio(t *testing.T) {
	r := Divide(1, 4)
	assert.True(t, r.Defined)
	assert.Equal(t, 25.0, r.Scale(100).Value)

	u := Divide(1, 0)
	assert.False(t, u.Defined)
	assert.False(t, u.Scale(100).Defined)

	// negative denominators are defined
	assert.True(t, Divide(1, -4).Defined)
}

func TestRatio_JSON(t *testing.T) {
	type payload struct {
		A Ratio `json:"a"`
		B Ratio `json:"b"`
	}

	data, err := json.Marshal(payload{A: Divide(3, 2), B: Undefined})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var back payload
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Divide(3, 2), back.A)
	assert.Equal(t, Undefined, back.B)
}

func TestDescribe(t *testing.T) {
	d, err := Describe([]float64{4, 1, 3, 2, math.NaN()})
	require.NoError(t, err)

	assert.Equal(t, 4, d.Count)
	assert.Equal(t, 2.5, d.Mean)
	assert.Equal(t, 2.5, d.Median)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 4.0, d.Max)
	assert.Equal(t, 2.0, d.P25)
	assert.Equal(t, 4.0, d.P75)

	_, err = Describe([]float64{math.Inf(-1)})
	assert.ErrorIs(t, err, ErrInsufficientData)
}
