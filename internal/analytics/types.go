// Package analytics provides the shared data model for the projection and
// risk packages: historical series, multi-factor windows, the reported
// Ratio value and the error taxonomy.
package analytics

import (
	"math"
	"sort"
)

// Observation is a single (period, value) entry of a historical series.
// Valid is false when the data collaborator could not produce a number.
type Observation struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
	Valid  bool    `json:"valid"`
}

// Usable reports whether the observation carries a finite, valid value
func (o Observation) Usable() bool {
	return o.Valid && !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0)
}

// HistoricalSeries is an ordered (ascending by period) sequence of
// observations of one metric for one entity. Periods need not be contiguous.
type HistoricalSeries struct {
	Entity       string        `json:"entity,omitempty"`
	Metric       string        `json:"metric,omitempty"`
	Observations []Observation `json:"observations"`
}

// NewHistoricalSeries copies obs and sorts it ascending by period.
// The sort is stable, so duplicate periods keep their input order.
func NewHistoricalSeries(entity, metric string, obs []Observation) HistoricalSeries {
	cp := make([]Observation, len(obs))
	copy(cp, obs)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Period < cp[j].Period })
	return HistoricalSeries{Entity: entity, Metric: metric, Observations: cp}
}

// Clean returns a copy holding only usable observations, order preserved.
// This is the only place invalid or non-finite values are dropped.
func (s HistoricalSeries) Clean() HistoricalSeries {
	out := make([]Observation, 0, len(s.Observations))
	for _, o := range s.Observations {
		if o.Usable() {
			out = append(out, o)
		}
	}
	return HistoricalSeries{Entity: s.Entity, Metric: s.Metric, Observations: out}
}

// Len returns the number of observations, usable or not
func (s HistoricalSeries) Len() int {
	return len(s.Observations)
}

// Values extracts the values in order
func (s HistoricalSeries) Values() []float64 {
	values := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		values[i] = o.Value
	}
	return values
}

// Periods extracts the periods in order
func (s HistoricalSeries) Periods() []int {
	periods := make([]int, len(s.Observations))
	for i, o := range s.Observations {
		periods[i] = o.Period
	}
	return periods
}

// Latest returns the last observation and false when the series is empty
func (s HistoricalSeries) Latest() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// At returns the observation recorded for period, if any
func (s HistoricalSeries) At(period int) (Observation, bool) {
	for i := len(s.Observations) - 1; i >= 0; i-- {
		if s.Observations[i].Period == period {
			return s.Observations[i], true
		}
	}
	return Observation{}, false
}

// FactorRole tells the risk analyzer how a factor participates in the
// leverage and growth computations.
type FactorRole int

const (
	RoleOther FactorRole = iota
	RoleAssets
	RoleLiabilities
	RoleGrowth
)

func (r FactorRole) String() string {
	switch r {
	case RoleAssets:
		return "assets"
	case RoleLiabilities:
		return "liabilities"
	case RoleGrowth:
		return "growth"
	default:
		return "other"
	}
}

// FactorSeries is one named factor of a window
type FactorSeries struct {
	Name   string
	Role   FactorRole
	Series HistoricalSeries
}

// Window holds several factors over the most recent periods of one entity.
// Periods is ascending and lists every period present in the window.
type Window struct {
	Entity  string
	Periods []int
	Factors []FactorSeries
}

// LatestPeriod returns the most recent period of the window
func (w Window) LatestPeriod() (int, bool) {
	if len(w.Periods) == 0 {
		return 0, false
	}
	return w.Periods[len(w.Periods)-1], true
}

// FactorByRole returns the first factor carrying role
func (w Window) FactorByRole(role FactorRole) (FactorSeries, bool) {
	for _, f := range w.Factors {
		if f.Role == role {
			return f, true
		}
	}
	return FactorSeries{}, false
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopStdDev returns the population standard deviation (divide by N)
func PopStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
