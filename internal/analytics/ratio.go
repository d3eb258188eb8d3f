package analytics

import (
	"encoding/json"
	"math"
	"sort"
)

// Ratio is a computed quotient that may be Undefined (zero denominator).
// Undefined is a reported value, not an error; it encodes as JSON null.
type Ratio struct {
	Value   float64
	Defined bool
}

// Undefined is the reported value for a zero denominator
var Undefined = Ratio{}

// Divide returns num/den, Undefined when den is exactly zero
func Divide(num, den float64) Ratio {
	if den == 0 {
		return Undefined
	}
	return Ratio{Value: num / den, Defined: true}
}

// Scale multiplies a defined ratio by k
func (r Ratio) Scale(k float64) Ratio {
	if !r.Defined {
		return r
	}
	return Ratio{Value: r.Value * k, Defined: true}
}

// MarshalJSON encodes a number, or null when undefined
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number or null
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Defined: true}
	return nil
}

// Description summarises a cross-section of values
type Description struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Describe computes cross-sectional statistics. The median averages the two
// middle elements for even counts; quartiles use sorted[n/4] and sorted[3n/4].
func Describe(values []float64) (Description, error) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	n := len(clean)
	if n == 0 {
		return Description{}, &InsufficientDataError{Operation: "describe", Need: 1, Have: 0}
	}
	sort.Float64s(clean)

	median := clean[n/2]
	if n%2 == 0 {
		median = (clean[n/2-1] + clean[n/2]) / 2
	}

	return Description{
		Count:  n,
		Mean:   Mean(clean),
		Median: median,
		StdDev: PopStdDev(clean),
		Min:    clean[0],
		Max:    clean[n-1],
		P25:    clean[n/4],
		P75:    clean[3*n/4],
	}, nil
}
