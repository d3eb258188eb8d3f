package risk

import (
	"sort"

	"github.com/finsim/finsim/internal/analytics"
)

// PeriodValues is every metric one entity reported for one period
type PeriodValues struct {
	Entity  string
	Metrics map[string]analytics.Observation
}

// MetricComparison is one metric of a head-to-head comparison. A and B are
// null when that side has no usable value; Difference is A minus B.
type MetricComparison struct {
	Metric     string   `json:"metric"`
	A          *float64 `json:"a"`
	B          *float64 `json:"b"`
	Difference *float64 `json:"difference"`
	Higher     string   `json:"higher,omitempty"`
}

// Comparison lines up two entities metric by metric for one period
type Comparison struct {
	A       string             `json:"a"`
	B       string             `json:"b"`
	Period  int                `json:"period"`
	Metrics []MetricComparison `json:"metrics"`
}

// Compare covers the union of both sides' metrics, sorted by name. Higher
// names the entity with the larger value and is empty on ties or when a
// side is missing.
func Compare(period int, a, b PeriodValues) Comparison {
	names := make(map[string]struct{}, len(a.Metrics)+len(b.Metrics))
	for m := range a.Metrics {
		names[m] = struct{}{}
	}
	for m := range b.Metrics {
		names[m] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for m := range names {
		sorted = append(sorted, m)
	}
	sort.Strings(sorted)

	out := Comparison{A: a.Entity, B: b.Entity, Period: period, Metrics: make([]MetricComparison, 0, len(sorted))}
	for _, m := range sorted {
		row := MetricComparison{Metric: m, A: usable(a.Metrics[m]), B: usable(b.Metrics[m])}
		if row.A != nil && row.B != nil {
			d := *row.A - *row.B
			row.Difference = &d
			switch {
			case d > 0:
				row.Higher = a.Entity
			case d < 0:
				row.Higher = b.Entity
			}
		}
		out.Metrics = append(out.Metrics, row)
	}
	return out
}

func usable(o analytics.Observation) *float64 {
	if !o.Usable() {
		return nil
	}
	v := o.Value
	return &v
}
