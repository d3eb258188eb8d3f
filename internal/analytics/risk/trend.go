package risk

import (
	"math"

	"github.com/finsim/finsim/internal/analytics"
)

// MinTrendPoints is the minimum number of usable points for a trend
const MinTrendPoints = 2

// PeriodGrowth is the percent change between two consecutive points
type PeriodGrowth struct {
	From    int             `json:"from"`
	To      int             `json:"to"`
	Percent analytics.Ratio `json:"percent"`
}

// TrendReport describes the recent trajectory of one metric
type TrendReport struct {
	Entity      string                  `json:"entity"`
	Metric      string                  `json:"metric"`
	Points      []analytics.Observation `json:"points"`
	Growth      []PeriodGrowth          `json:"growth"`
	CAGRPercent analytics.Ratio         `json:"cagr_percent"`
}

// Trend computes chronological period-over-period growth over the most
// recent `periods` usable points (all of them when periods <= 0), and the
// compound annual growth rate between the first and last of those points.
func Trend(series analytics.HistoricalSeries, periods int) (TrendReport, error) {
	points := series.Clean().Observations
	if periods > 0 && len(points) > periods {
		points = points[len(points)-periods:]
	}
	if len(points) < MinTrendPoints {
		return TrendReport{}, &analytics.InsufficientDataError{
			Operation: "trend",
			Need:      MinTrendPoints,
			Have:      len(points),
		}
	}

	growth := make([]PeriodGrowth, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		growth = append(growth, PeriodGrowth{
			From:    prev.Period,
			To:      cur.Period,
			Percent: analytics.Divide(cur.Value-prev.Value, prev.Value).Scale(100),
		})
	}

	return TrendReport{
		Entity:      series.Entity,
		Metric:      series.Metric,
		Points:      points,
		Growth:      growth,
		CAGRPercent: CAGR(points[0], points[len(points)-1]),
	}, nil
}

// CAGR returns (last/first)^(1/span)-1 in percent, where span is the number
// of periods between the two points.
func CAGR(first, last analytics.Observation) analytics.Ratio {
	span := last.Period - first.Period
	if span <= 0 || first.Value <= 0 || last.Value < 0 {
		return analytics.Undefined
	}
	return analytics.Ratio{
		Value:   100 * (math.Pow(last.Value/first.Value, 1/float64(span)) - 1),
		Defined: true,
	}
}
