package repository

import (
	"context"
	"time"

	"StratForge/internal/domain/models"
)

// CandleStore provides OHLCV access for feature computation, plus the write
// path used by the Kafka candle ingester.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
	Store(ctx context.Context, c models.Candle) error
	StoreBatch(ctx context.Context, candles []models.Candle) error
	Health(ctx context.Context) error
}

// ManifestStore persists the training-time feature order. Save is write-once:
// producing a new manifest means producing a new trained artifact, so an
// existing run id must be rejected, never overwritten.
type ManifestStore interface {
	Save(ctx context.Context, runID string, m *models.Manifest) error
	Load(ctx context.Context, runID string) (*models.Manifest, error)
}

// FeatureSink receives computed, canonically ordered feature columns.
type FeatureSink interface {
	StoreTable(ctx context.Context, runID, symbol string, t *models.FeatureTable) error
	Close() error
}

// FeaturePublisher streams computed feature rows to downstream consumers.
type FeaturePublisher interface {
	PublishTable(ctx context.Context, runID, symbol string, t *models.FeatureTable) error
	Close() error
}

// Metrics is the instrumentation surface implemented by pkg/metrics.
type Metrics interface {
	RecordResolution(strategy string, features int)
	RecordValidationIssues(strategy string, errors, warnings int)
	RecordFeaturesComputed(strategy string, columns int)
	RecordMismatch(strategy string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
