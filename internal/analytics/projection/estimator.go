// Package projection implements the GBM projection pipeline: parameter
// estimation from history, path simulation and ensemble aggregation.
package projection

import (
	"math"

	"github.com/finsim/finsim/internal/analytics"
)

// MinEstimationPoints is the minimum number of usable observations
const MinEstimationPoints = 3

// Estimate holds calibrated GBM parameters and the anchor of the series
type Estimate struct {
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
	Points     int     `json:"points"`  // usable observations
	Returns    int     `json:"returns"` // log returns used
	LastPeriod int     `json:"last_period"`
	LastValue  float64 `json:"last_value"`
}

// LogReturns computes ln(v[i]/v[i-1]) over consecutive usable values.
// A pair is skipped when either value is non-positive, so the result can be
// shorter than len-1. A drop to zero or below therefore never yields a -Inf
// or NaN return; it removes that pair from the estimate instead.
func LogReturns(series analytics.HistoricalSeries) []float64 {
	values := series.Clean().Values()
	if len(values) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	return returns
}

// EstimateParameters derives drift (mean of log returns) and volatility
// (population standard deviation of log returns) from a historical series.
func EstimateParameters(series analytics.HistoricalSeries) (Estimate, error) {
	clean := series.Clean()
	if clean.Len() < MinEstimationPoints {
		return Estimate{}, &analytics.InsufficientDataError{
			Operation: "estimate parameters",
			Need:      MinEstimationPoints,
			Have:      clean.Len(),
		}
	}

	returns := LogReturns(clean)
	if len(returns) == 0 {
		return Estimate{}, &analytics.InsufficientDataError{
			Operation: "estimate parameters (log returns)",
			Need:      1,
			Have:      0,
		}
	}

	last, _ := clean.Latest()
	return Estimate{
		Drift:      analytics.Mean(returns),
		Volatility: populationStdDev(returns),
		Points:     clean.Len(),
		Returns:    len(returns),
		LastPeriod: last.Period,
		LastValue:  last.Value,
	}, nil
}

// populationStdDev returns exactly 0 when all values are equal, which the
// two-pass formula does not guarantee for every input.
func populationStdDev(values []float64) float64 {
	allEqual := true
	for _, v := range values[1:] {
		if v != values[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return 0
	}
	return analytics.PopStdDev(values)
}
