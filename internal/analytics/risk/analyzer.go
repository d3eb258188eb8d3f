// Package risk computes variability, leverage and growth-stability metrics
// over short windows of historical factors, plus point-in-time financial
// ratios and trend figures.
package risk

import (
	"math"

	"github.com/finsim/finsim/internal/analytics"
)

// MinFactorObservations is the minimum number of usable observations a
// factor needs before its coefficient of variation or growth is computed.
const MinFactorObservations = 3

// DebtLevel classifies a debt ratio
type DebtLevel string

const (
	DebtHigh         DebtLevel = "high"
	DebtModerate     DebtLevel = "moderate"
	DebtConservative DebtLevel = "conservative"
)

// GrowthClass classifies an average growth rate
type GrowthClass string

const (
	GrowthHigh      GrowthClass = "high_growth"
	GrowthModerate  GrowthClass = "moderate_growth"
	GrowthStable    GrowthClass = "stable"
	GrowthDeclining GrowthClass = "declining"
)

// FactorVariability is the coefficient of variation of one factor
type FactorVariability struct {
	Factor                 string          `json:"factor"`
	Observations           int             `json:"observations"`
	Mean                   float64         `json:"mean"`
	StdDev                 float64         `json:"std_dev"`
	CoefficientOfVariation analytics.Ratio `json:"coefficient_of_variation"`
}

// Leverage is the debt ratio at the most recent period of the window
type Leverage struct {
	Period      int             `json:"period"`
	Assets      float64         `json:"assets"`
	Liabilities float64         `json:"liabilities"`
	DebtRatio   analytics.Ratio `json:"debt_ratio"`
	Level       DebtLevel       `json:"level,omitempty"`
}

// GrowthStability is the mean period-over-period growth of the growth factor
type GrowthStability struct {
	Factor               string      `json:"factor"`
	Pairs                int         `json:"pairs"`
	AverageGrowthPercent float64     `json:"average_growth_percent"`
	Class                GrowthClass `json:"class"`
}

// PositionEntry is the latest usable value of a factor
type PositionEntry struct {
	Factor string  `json:"factor"`
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// Report is the outcome of a window analysis. Sections whose inputs are
// missing are nil or empty; the analysis itself never fails.
type Report struct {
	Entity      string              `json:"entity"`
	Periods     []int               `json:"periods"`
	Variability []FactorVariability `json:"variability"`
	Leverage    *Leverage           `json:"leverage,omitempty"`
	Growth      *GrowthStability    `json:"growth,omitempty"`
	Position    []PositionEntry     `json:"position"`
}

// Analyze runs every independent factor computation over the window
func Analyze(w analytics.Window) Report {
	report := Report{
		Entity:      w.Entity,
		Periods:     w.Periods,
		Variability: make([]FactorVariability, 0, len(w.Factors)),
		Position:    make([]PositionEntry, 0, len(w.Factors)),
	}

	for _, f := range w.Factors {
		clean := f.Series.Clean()
		if v, ok := variability(f.Name, clean); ok {
			report.Variability = append(report.Variability, v)
		}
		if last, ok := clean.Latest(); ok {
			report.Position = append(report.Position, PositionEntry{Factor: f.Name, Period: last.Period, Value: last.Value})
		}
	}

	report.Leverage = leverage(w)

	if g, ok := w.FactorByRole(analytics.RoleGrowth); ok {
		report.Growth = growthStability(g)
	}

	return report
}

// CoefficientOfVariation returns 100*popstd/|mean|, Undefined when mean is 0
func CoefficientOfVariation(values []float64) analytics.Ratio {
	mean := analytics.Mean(values)
	return analytics.Divide(analytics.PopStdDev(values), math.Abs(mean)).Scale(100)
}

// ClassifyDebt maps a debt ratio to a level; undefined ratios have none
func ClassifyDebt(r analytics.Ratio) DebtLevel {
	if !r.Defined {
		return ""
	}
	switch {
	case r.Value > 0.6:
		return DebtHigh
	case r.Value > 0.4:
		return DebtModerate
	default:
		return DebtConservative
	}
}

// ClassifyGrowth maps an average growth percentage to a class
func ClassifyGrowth(avgPercent float64) GrowthClass {
	switch {
	case avgPercent > 15:
		return GrowthHigh
	case avgPercent > 5:
		return GrowthModerate
	case avgPercent > 0:
		return GrowthStable
	default:
		return GrowthDeclining
	}
}

func variability(name string, clean analytics.HistoricalSeries) (FactorVariability, bool) {
	if clean.Len() < MinFactorObservations {
		return FactorVariability{}, false
	}
	values := clean.Values()
	return FactorVariability{
		Factor:                 name,
		Observations:           len(values),
		Mean:                   analytics.Mean(values),
		StdDev:                 analytics.PopStdDev(values),
		CoefficientOfVariation: CoefficientOfVariation(values),
	}, true
}

func leverage(w analytics.Window) *Leverage {
	period, ok := w.LatestPeriod()
	if !ok {
		return nil
	}
	assetsFactor, ok := w.FactorByRole(analytics.RoleAssets)
	if !ok {
		return nil
	}
	liabFactor, ok := w.FactorByRole(analytics.RoleLiabilities)
	if !ok {
		return nil
	}

	assets, ok := assetsFactor.Series.At(period)
	if !ok || !assets.Usable() {
		return nil
	}
	liabilities, ok := liabFactor.Series.At(period)
	if !ok || !liabilities.Usable() {
		return nil
	}

	ratio := analytics.Divide(liabilities.Value, assets.Value)
	return &Leverage{
		Period:      period,
		Assets:      assets.Value,
		Liabilities: liabilities.Value,
		DebtRatio:   ratio,
		Level:       ClassifyDebt(ratio),
	}
}

// growthStability averages chronological percent changes, skipping pairs
// whose earlier value is zero.
func growthStability(f analytics.FactorSeries) *GrowthStability {
	values := f.Series.Clean().Values()
	if len(values) < MinFactorObservations {
		return nil
	}

	total := 0.0
	pairs := 0
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		total += 100 * (values[i] - values[i-1]) / values[i-1]
		pairs++
	}
	if pairs == 0 {
		return nil
	}

	avg := total / float64(pairs)
	return &GrowthStability{
		Factor:               f.Name,
		Pairs:                pairs,
		AverageGrowthPercent: avg,
		Class:                ClassifyGrowth(avg),
	}
}
