package models

import (
	"github.com/finsim/finsim/internal/analytics"
)

// SimulateRequest is a hypothetical projection from explicit parameters
type SimulateRequest struct {
	InitialValue float64 `json:"initial_value"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
	Horizon      int     `json:"horizon"`
	Samples      int     `json:"samples"`
	Seed         uint64  `json:"seed"`
	IncludeSteps bool    `json:"include_steps"`
}

// ProjectionRequest projects a stored metric; zero values fall back to
// configured defaults and nil overrides keep the calibrated parameters.
type ProjectionRequest struct {
	Horizon      int      `json:"horizon"`
	Samples      int      `json:"samples"`
	Seed         uint64   `json:"seed"`
	Drift        *float64 `json:"drift,omitempty"`
	Volatility   *float64 `json:"volatility,omitempty"`
	IncludeSteps bool     `json:"include_steps"`
}

// ObservationInput is one point of an inline series. A null value or
// "valid": false marks it as missing.
type ObservationInput struct {
	Period int      `json:"period"`
	Value  *float64 `json:"value"`
	Valid  *bool    `json:"valid,omitempty"`
}

// EstimateRequest calibrates an inline series
type EstimateRequest struct {
	Entity       string             `json:"entity,omitempty"`
	Metric       string             `json:"metric,omitempty"`
	Observations []ObservationInput `json:"observations"`
}

// Series converts the request into a historical series
func (r *EstimateRequest) Series() analytics.HistoricalSeries {
	obs := make([]analytics.Observation, len(r.Observations))
	for i, o := range r.Observations {
		obs[i] = analytics.Observation{Period: o.Period}
		if o.Value != nil && (o.Valid == nil || *o.Valid) {
			obs[i].Value = *o.Value
			obs[i].Valid = true
		}
	}
	return analytics.NewHistoricalSeries(r.Entity, r.Metric, obs)
}
