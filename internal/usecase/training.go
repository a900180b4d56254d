package usecase

import (
	"context"
	"fmt"
	"time"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/internal/enforcer"
	"StratForge/internal/resolver"
	applogger "StratForge/pkg/logger"
)

// TrainingRunner resolves a strategy, computes its feature table over a
// historical window for every symbol, and persists the resulting manifest.
// The manifest is written once per run id; the feature order it records is
// authoritative for every later consumption of the trained model.
type TrainingRunner struct {
	enforcer  *enforcer.Enforcer
	candles   domrepo.CandleStore
	manifests domrepo.ManifestStore
	sink      domrepo.FeatureSink
	publisher domrepo.FeaturePublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewTrainingRunner(
	enf *enforcer.Enforcer,
	candles domrepo.CandleStore,
	manifests domrepo.ManifestStore,
	sink domrepo.FeatureSink,
	publisher domrepo.FeaturePublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *TrainingRunner {
	return &TrainingRunner{
		enforcer:  enf,
		candles:   candles,
		manifests: manifests,
		sink:      sink,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

type TrainingParams struct {
	RunID string
	Spec  *models.StrategySpec
	From  time.Time
	To    time.Time
}

type TrainingResult struct {
	RunID      string
	FeatureIDs []string
	Symbols    int
	Rows       int
}

func (r *TrainingRunner) Run(ctx context.Context, p TrainingParams) (*TrainingResult, error) {
	if p.RunID == "" {
		return nil, fmt.Errorf("run id required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}

	start := time.Now()
	set := resolver.Resolve(p.Spec)
	r.metrics.RecordResolution(p.Spec.Name, len(set.Features))
	r.log.Info("training run resolved",
		applogger.String("run_id", p.RunID),
		applogger.String("strategy", p.Spec.Name),
		applogger.Int("features", len(set.Features)),
	)

	res := &TrainingResult{RunID: p.RunID, FeatureIDs: set.FeatureIDs()}
	for _, symbol := range p.Spec.Symbols {
		data, err := r.loadWindow(ctx, symbol, set, p.From, p.To)
		if err != nil {
			return nil, err
		}
		table, err := r.enforcer.ComputeResolved(ctx, p.Spec, set, nil, data)
		if err != nil {
			return nil, fmt.Errorf("compute features for %s: %w", symbol, err)
		}
		if err := r.sink.StoreTable(ctx, p.RunID, symbol, table); err != nil {
			return nil, fmt.Errorf("store features for %s: %w", symbol, err)
		}
		if r.publisher != nil {
			if err := r.publisher.PublishTable(ctx, p.RunID, symbol, table); err != nil {
				r.log.Warn("feature publish failed",
					applogger.String("run_id", p.RunID),
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
		}
		res.Symbols++
		for _, col := range table.Columns {
			res.Rows += len(col.Values)
		}
	}

	manifest := models.NewManifest(p.Spec, set, nil)
	if err := r.manifests.Save(ctx, p.RunID, manifest); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}
	r.metrics.RecordLatency("training_run_seconds", time.Since(start).Seconds())
	r.log.Info("training run complete",
		applogger.String("run_id", p.RunID),
		applogger.Int("symbols", res.Symbols),
		applogger.Int("rows", res.Rows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

func (r *TrainingRunner) loadWindow(ctx context.Context, symbol string, set *models.ResolvedFeatureSet, from, to time.Time) (enforcer.MarketData, error) {
	data := make(enforcer.MarketData, len(set.Timeframes()))
	for _, tf := range set.Timeframes() {
		candles, err := r.candles.GetCandles(ctx, symbol, from, to, domrepo.Timeframe(tf))
		if err != nil {
			return nil, fmt.Errorf("load %s candles for %s: %w", tf, symbol, err)
		}
		data[tf] = candles
	}
	return data, nil
}
