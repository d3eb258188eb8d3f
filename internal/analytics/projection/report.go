package projection

import (
	"math"

	"github.com/finsim/finsim/internal/analytics"
)

// Outlook classifies the growth probability of a projection
type Outlook string

const (
	OutlookHigh      Outlook = "high"
	OutlookModerate  Outlook = "moderate"
	OutlookUncertain Outlook = "uncertain"
)

// ConsistencyTolerance is the relative gap between simulated and theoretical
// mean under which a run is reported as consistent.
const ConsistencyTolerance = 0.10

// Report derives risk-oriented figures from terminal statistics
type Report struct {
	TheoreticalMean        float64         `json:"theoretical_mean"`
	DeviationPercent       float64         `json:"deviation_percent"`
	Consistent             bool            `json:"consistent"`
	DownsideRiskPercent    analytics.Ratio `json:"downside_risk_percent"`
	UpsidePotentialPercent analytics.Ratio `json:"upside_potential_percent"`
	Outlook                Outlook         `json:"outlook"`
	ProjectedPeriod        *int            `json:"projected_period,omitempty"`
}

// ClassifyOutlook maps growth probability to an outlook
func ClassifyOutlook(growthProbabilityPercent float64) Outlook {
	switch {
	case growthProbabilityPercent > 70:
		return OutlookHigh
	case growthProbabilityPercent > 50:
		return OutlookModerate
	default:
		return OutlookUncertain
	}
}

// BuildReport compares the simulated terminal distribution against the
// analytic GBM expectation initial*exp(drift*horizon). lastPeriod anchors
// the projected period when the run was calibrated from history.
func BuildReport(params SimulationParameters, stats Statistics, lastPeriod *int) Report {
	theoretical := params.InitialValue * math.Exp(params.Drift*float64(params.HorizonPeriods))
	deviation := (stats.Mean - theoretical) / theoretical

	r := Report{
		TheoreticalMean:        theoretical,
		DeviationPercent:       100 * deviation,
		Consistent:             math.Abs(deviation) < ConsistencyTolerance,
		DownsideRiskPercent:    analytics.Divide(stats.P5-params.InitialValue, params.InitialValue).Scale(100),
		UpsidePotentialPercent: analytics.Divide(stats.P95-params.InitialValue, params.InitialValue).Scale(100),
		Outlook:                ClassifyOutlook(stats.GrowthProbabilityPercent),
	}
	if lastPeriod != nil {
		p := *lastPeriod + params.HorizonPeriods
		r.ProjectedPeriod = &p
	}
	return r
}
