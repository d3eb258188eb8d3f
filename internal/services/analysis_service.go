package services

import (
	"context"
	"time"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/finsim/finsim/internal/analytics/risk"
	"github.com/finsim/finsim/internal/config"
	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/storage"
)

// AnalysisService runs risk, ratio, trend and sector analyses
type AnalysisService struct {
	logger *logging.Logger
	repo   SeriesRepository
	cfg    config.RiskConfig
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(logger *logging.Logger, repo SeriesRepository, cfg config.RiskConfig) *AnalysisService {
	return &AnalysisService{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// SectorResult is a cross-sectional description of one metric
type SectorResult struct {
	Sector      string                `json:"sector"`
	Metric      string                `json:"metric"`
	Period      int                   `json:"period"`
	Companies   []string              `json:"companies"`
	Skipped     int                   `json:"skipped"`
	Description analytics.Description `json:"description"`
}

// Risk analyzes the configured factors over the most recent window
func (s *AnalysisService) Risk(ctx context.Context, entity string) (*risk.Report, error) {
	start := time.Now()

	w, err := s.repo.FetchWindow(ctx, entity, s.cfg.Factors, s.cfg.WindowSize)
	if err != nil {
		return nil, translateError(err)
	}
	s.assignRoles(&w)

	report := risk.Analyze(w)

	s.logger.WithContext(ctx).Info("Risk analysis completed",
		"entity", entity,
		"periods", len(w.Periods),
		"factors", len(report.Variability),
		"latency_ms", time.Since(start).Milliseconds())

	return &report, nil
}

// Ratios computes financial ratios for one period; period <= 0 is the latest
func (s *AnalysisService) Ratios(ctx context.Context, entity string, period int) (*risk.Ratios, error) {
	snap, err := s.repo.FetchSnapshot(ctx, entity, period)
	if err != nil {
		return nil, translateError(err)
	}
	ratios := risk.ComputeRatios(snap)
	return &ratios, nil
}

// Trend reports period growth and CAGR over the most recent periods.
// periods == 0 uses the configured default.
func (s *AnalysisService) Trend(ctx context.Context, entity, metric string, periods int) (*risk.TrendReport, error) {
	if periods == 0 {
		periods = s.cfg.TrendPeriods
	}
	if periods < risk.MinTrendPoints {
		return nil, NewServiceErrorWithDetails(CodeInvalidParameter, "periods must be at least 2",
			map[string]interface{}{"field": "periods"})
	}

	series, err := s.repo.FetchSeries(ctx, entity, metric)
	if err != nil {
		return nil, translateError(err)
	}

	report, err := risk.Trend(series, periods)
	if err != nil {
		return nil, translateError(err)
	}
	return &report, nil
}

// Sector describes one metric across the companies of a sector
func (s *AnalysisService) Sector(ctx context.Context, sector, metric string, period int) (*SectorResult, error) {
	cs, err := s.repo.FetchCrossSection(ctx, sector, metric, period)
	if err != nil {
		return nil, translateError(err)
	}

	values := make([]float64, len(cs.Values))
	companies := make([]string, len(cs.Values))
	for i, v := range cs.Values {
		values[i] = v.Value
		companies[i] = v.Ticker
	}

	desc, err := analytics.Describe(values)
	if err != nil {
		return nil, translateError(err)
	}

	return &SectorResult{
		Sector:      cs.Sector,
		Metric:      cs.Metric,
		Period:      cs.Period,
		Companies:   companies,
		Skipped:     cs.Skipped,
		Description: desc,
	}, nil
}

// Compare lines up two entities metric by metric. period <= 0 uses the most
// recent period of a; b must have data for the same period.
func (s *AnalysisService) Compare(ctx context.Context, a, b string, period int) (*risk.Comparison, error) {
	period, metricsA, err := s.repo.FetchPeriod(ctx, a, period)
	if err != nil {
		return nil, translateError(err)
	}
	_, metricsB, err := s.repo.FetchPeriod(ctx, b, period)
	if err != nil {
		return nil, translateError(err)
	}

	c := risk.Compare(period,
		risk.PeriodValues{Entity: a, Metrics: metricsA},
		risk.PeriodValues{Entity: b, Metrics: metricsB})
	return &c, nil
}

// ScreenResult lists the (ticker, period) pairs passing every criterion
type ScreenResult struct {
	Criteria []storage.Criterion   `json:"criteria"`
	Period   int                   `json:"period,omitempty"`
	Count    int                   `json:"count"`
	Matches  []storage.ScreenMatch `json:"matches"`
}

// Screen parses "metric op threshold" conditions and ANDs them.
// period <= 0 screens every period.
func (s *AnalysisService) Screen(ctx context.Context, conditions []string, period int) (*ScreenResult, error) {
	start := time.Now()
	if len(conditions) == 0 {
		return nil, NewServiceErrorWithDetails(CodeInvalidParameter, "at least one criterion is required",
			map[string]interface{}{"field": "criteria"})
	}

	criteria := make([]storage.Criterion, 0, len(conditions))
	for _, cond := range conditions {
		c, err := storage.ParseCriterion(cond)
		if err != nil {
			return nil, translateError(err)
		}
		criteria = append(criteria, c)
	}

	matches, err := s.repo.Screen(ctx, criteria, period)
	if err != nil {
		return nil, translateError(err)
	}

	s.logger.WithContext(ctx).Info("Screen completed",
		"criteria", len(criteria),
		"period", period,
		"matches", len(matches),
		"latency_ms", time.Since(start).Milliseconds())

	return &ScreenResult{
		Criteria: criteria,
		Period:   max(period, 0),
		Count:    len(matches),
		Matches:  matches,
	}, nil
}

func (s *AnalysisService) assignRoles(w *analytics.Window) {
	for i := range w.Factors {
		switch w.Factors[i].Name {
		case s.cfg.AssetsFactor:
			w.Factors[i].Role = analytics.RoleAssets
		case s.cfg.LiabilitiesFactor:
			w.Factors[i].Role = analytics.RoleLiabilities
		case s.cfg.GrowthFactor:
			w.Factors[i].Role = analytics.RoleGrowth
		}
	}
}
