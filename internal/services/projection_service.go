package services

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/finsim/finsim/internal/analytics/projection"
	"github.com/finsim/finsim/internal/config"
	"github.com/finsim/finsim/internal/logging"
	"github.com/google/uuid"
)

// ProjectionService calibrates and runs GBM projections
type ProjectionService struct {
	logger *logging.Logger
	repo   SeriesRepository
	cfg    config.SimulationConfig
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(logger *logging.Logger, repo SeriesRepository, cfg config.SimulationConfig) *ProjectionService {
	return &ProjectionService{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// EstimateResult is a calibration of one historical series
type EstimateResult struct {
	Entity   string              `json:"entity,omitempty"`
	Metric   string              `json:"metric,omitempty"`
	Estimate projection.Estimate `json:"estimate"`
}

// ProjectionRequest projects a stored metric forward. Drift and Volatility
// override the calibrated values when set.
type ProjectionRequest struct {
	Entity       string
	Metric       string
	Horizon      int
	Samples      int
	Seed         uint64
	Drift        *float64
	Volatility   *float64
	IncludeSteps bool
}

// SimulationRequest runs a hypothetical projection from explicit parameters
type SimulationRequest struct {
	InitialValue float64
	Drift        float64
	Volatility   float64
	Horizon      int
	Samples      int
	Seed         uint64
	IncludeSteps bool
}

// RunResult is the outcome of one simulation run
type RunResult struct {
	RunID      string                          `json:"run_id"`
	Entity     string                          `json:"entity,omitempty"`
	Metric     string                          `json:"metric,omitempty"`
	Seed       uint64                          `json:"seed"`
	Parameters projection.SimulationParameters `json:"parameters"`
	Estimate   *projection.Estimate            `json:"estimate,omitempty"`
	Terminal   projection.Statistics           `json:"terminal"`
	Steps      []projection.Statistics         `json:"steps,omitempty"`
	Report     projection.Report               `json:"report"`
	Complete   bool                            `json:"complete"`
	ElapsedMs  int64                           `json:"elapsed_ms"`
}

// Estimate calibrates drift and volatility from a stored series
func (s *ProjectionService) Estimate(ctx context.Context, entity, metric string) (*EstimateResult, error) {
	series, err := s.repo.FetchSeries(ctx, entity, metric)
	if err != nil {
		return nil, translateError(err)
	}
	return s.EstimateSeries(series)
}

// EstimateSeries calibrates drift and volatility from an inline series
func (s *ProjectionService) EstimateSeries(series analytics.HistoricalSeries) (*EstimateResult, error) {
	est, err := projection.EstimateParameters(series)
	if err != nil {
		return nil, translateError(err)
	}
	return &EstimateResult{Entity: series.Entity, Metric: series.Metric, Estimate: est}, nil
}

// Project calibrates from history, then simulates from the latest usable value
func (s *ProjectionService) Project(ctx context.Context, req *ProjectionRequest) (*RunResult, error) {
	series, err := s.repo.FetchSeries(ctx, req.Entity, req.Metric)
	if err != nil {
		return nil, translateError(err)
	}

	est, err := projection.EstimateParameters(series)
	if err != nil {
		return nil, translateError(err)
	}

	drift, vol := est.Drift, est.Volatility
	if req.Drift != nil {
		drift = *req.Drift
	}
	if req.Volatility != nil {
		vol = *req.Volatility
	}

	params, err := s.parameters(est.LastValue, drift, vol, req.Horizon, req.Samples)
	if err != nil {
		return nil, err
	}

	result, err := s.run(ctx, params, req.Seed, req.IncludeSteps, &est.LastPeriod)
	if err != nil {
		return nil, err
	}
	result.Entity = req.Entity
	result.Metric = req.Metric
	result.Estimate = &est
	return result, nil
}

// Simulate runs a hypothetical projection
func (s *ProjectionService) Simulate(ctx context.Context, req *SimulationRequest) (*RunResult, error) {
	params, err := s.parameters(req.InitialValue, req.Drift, req.Volatility, req.Horizon, req.Samples)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, params, req.Seed, req.IncludeSteps, nil)
}

// parameters applies configured defaults and limits
func (s *ProjectionService) parameters(initial, drift, vol float64, horizon, samples int) (projection.SimulationParameters, error) {
	if horizon == 0 {
		horizon = s.cfg.DefaultHorizon
	}
	if samples == 0 {
		samples = s.cfg.DefaultSamples
	}
	if horizon > s.cfg.MaxHorizon {
		return projection.SimulationParameters{}, NewServiceErrorWithDetails(CodeInvalidParameter,
			"horizon exceeds the configured maximum", map[string]interface{}{"field": "horizon_periods", "max": s.cfg.MaxHorizon})
	}
	if samples > s.cfg.MaxSamples {
		return projection.SimulationParameters{}, NewServiceErrorWithDetails(CodeInvalidParameter,
			"samples exceeds the configured maximum", map[string]interface{}{"field": "sample_count", "max": s.cfg.MaxSamples})
	}

	params := projection.SimulationParameters{
		InitialValue:   initial,
		Drift:          drift,
		Volatility:     vol,
		HorizonPeriods: horizon,
		SampleCount:    samples,
	}
	if err := params.Validate(); err != nil {
		return projection.SimulationParameters{}, translateError(err)
	}
	return params, nil
}

func (s *ProjectionService) run(ctx context.Context, params projection.SimulationParameters, seed uint64, includeSteps bool, lastPeriod *int) (*RunResult, error) {
	start := time.Now()

	runID := uuid.New().String()
	if seed == 0 {
		seed = s.cfg.DefaultSeed
	}
	if seed == 0 {
		seed = freshSeed()
	}

	ctx = logging.WithRunID(ctx, runID)
	logger := s.logger.WithContext(ctx)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ensemble, err := projection.RunSimulation(ctx, params, seed, projection.RunOptions{
		Workers:   s.cfg.Workers,
		BatchSize: s.cfg.BatchSize,
	})
	if err != nil && ensemble.Len() == 0 {
		logger.Warn("Simulation produced no paths", "error", err)
		return nil, translateError(err)
	}
	if err != nil {
		logger.Warn("Simulation stopped early, summarizing completed paths",
			"completed", ensemble.Len(),
			"requested", params.SampleCount,
			"error", err)
	}

	terminal, err := projection.Summarize(ensemble)
	if err != nil {
		return nil, translateError(err)
	}

	result := &RunResult{
		RunID:      runID,
		Seed:       seed,
		Parameters: params,
		Terminal:   terminal,
		Report:     projection.BuildReport(params, terminal, lastPeriod),
		Complete:   ensemble.Complete,
	}
	if includeSteps {
		steps, err := projection.SummarizeSteps(ensemble)
		if err != nil && !errors.Is(err, analytics.ErrEmptyEnsemble) {
			return nil, translateError(err)
		}
		result.Steps = steps
	}

	latency := time.Since(start)
	result.ElapsedMs = latency.Milliseconds()

	logger.Info("Simulation completed",
		"samples", ensemble.Len(),
		"horizon", params.HorizonPeriods,
		"seed", seed,
		"complete", ensemble.Complete,
		"latency_ms", latency.Milliseconds())

	return result, nil
}

// freshSeed draws a non-zero seed from a random UUID
func freshSeed() uint64 {
	id := uuid.New()
	seed := binary.BigEndian.Uint64(id[:8]) ^ binary.BigEndian.Uint64(id[8:])
	if seed == 0 {
		seed = 1
	}
	return seed
}
