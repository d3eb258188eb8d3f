package projection

import (
	"math"
	"sort"

	"github.com/finsim/finsim/internal/analytics"
)

// Statistics summarises the distribution of an ensemble at one step
type Statistics struct {
	Step                     int     `json:"step"`
	Count                    int     `json:"count"`
	Mean                     float64 `json:"mean"`
	Median                   float64 `json:"median"`
	P5                       float64 `json:"p5"`
	P25                      float64 `json:"p25"`
	P75                      float64 `json:"p75"`
	P95                      float64 `json:"p95"`
	Min                      float64 `json:"min"`
	Max                      float64 `json:"max"`
	GrowthProbabilityPercent float64 `json:"growth_probability_percent"`
}

// Summarize reduces the terminal values of the ensemble
func Summarize(e *Ensemble) (Statistics, error) {
	if e.Len() == 0 {
		return Statistics{}, analytics.ErrEmptyEnsemble
	}
	return summarizeStep(e, len(e.Paths[0])-1), nil
}

// SummarizeSteps reduces every step 0..horizon, e.g. for fan charts
func SummarizeSteps(e *Ensemble) ([]Statistics, error) {
	if e.Len() == 0 {
		return nil, analytics.ErrEmptyEnsemble
	}
	width := len(e.Paths[0])
	out := make([]Statistics, width)
	for step := 0; step < width; step++ {
		out[step] = summarizeStep(e, step)
	}
	return out, nil
}

func summarizeStep(e *Ensemble, step int) Statistics {
	n := len(e.Paths)
	values := make([]float64, n)
	for i, p := range e.Paths {
		values[i] = p[step]
	}
	sort.Float64s(values)

	initial := e.Params.InitialValue
	growth := 0
	sum := 0.0
	for _, v := range values {
		sum += v
		if v > initial {
			growth++
		}
	}

	return Statistics{
		Step:                     step,
		Count:                    n,
		Mean:                     sum / float64(n),
		Median:                   values[n/2],
		P5:                       nearestRank(values, 0.05),
		P25:                      nearestRank(values, 0.25),
		P75:                      nearestRank(values, 0.75),
		P95:                      nearestRank(values, 0.95),
		Min:                      values[0],
		Max:                      values[n-1],
		GrowthProbabilityPercent: 100 * float64(growth) / float64(n),
	}
}

// nearestRank picks sorted[floor(n*f)] clamped to the slice bounds.
// No interpolation: the output must match the historical reports exactly.
func nearestRank(sorted []float64, f float64) float64 {
	n := len(sorted)
	idx := int(math.Floor(float64(n) * f))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
