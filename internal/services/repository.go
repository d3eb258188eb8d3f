package services

import (
	"context"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/finsim/finsim/internal/analytics/risk"
	"github.com/finsim/finsim/internal/storage"
)

// SeriesRepository supplies historical statement data.
// storage.SQLiteRepository is the production implementation.
type SeriesRepository interface {
	FetchSeries(ctx context.Context, entity, metric string) (analytics.HistoricalSeries, error)
	FetchWindow(ctx context.Context, entity string, factors []string, windowSize int) (analytics.Window, error)
	FetchSnapshot(ctx context.Context, entity string, period int) (risk.Snapshot, error)
	FetchCrossSection(ctx context.Context, sector, metric string, period int) (storage.CrossSection, error)
	FetchPeriod(ctx context.Context, entity string, period int) (int, map[string]analytics.Observation, error)
	Screen(ctx context.Context, criteria []storage.Criterion, period int) ([]storage.ScreenMatch, error)
}

var _ SeriesRepository = (*storage.SQLiteRepository)(nil)
