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

// BacktestRunner replays a strategy against history under an existing
// manifest. Feature columns come back in manifest order, so rows feed the
// trained model exactly as at training time.
type BacktestRunner struct {
	enforcer  *enforcer.Enforcer
	candles   domrepo.CandleStore
	manifests domrepo.ManifestStore
	sink      domrepo.FeatureSink
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewBacktestRunner(
	enf *enforcer.Enforcer,
	candles domrepo.CandleStore,
	manifests domrepo.ManifestStore,
	sink domrepo.FeatureSink,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *BacktestRunner {
	return &BacktestRunner{
		enforcer:  enf,
		candles:   candles,
		manifests: manifests,
		sink:      sink,
		metrics:   metrics,
		log:       log,
	}
}

type BacktestParams struct {
	RunID string
	Spec  *models.StrategySpec
	From  time.Time
	To    time.Time
}

type BacktestResult struct {
	RunID      string
	FeatureIDs []string
	Symbols    int
	Rows       int
}

func (r *BacktestRunner) Run(ctx context.Context, p BacktestParams) (*BacktestResult, error) {
	if p.RunID == "" {
		return nil, fmt.Errorf("run id required")
	}
	manifest, err := r.manifests.Load(ctx, p.RunID)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	start := time.Now()
	set := resolver.Resolve(p.Spec)
	r.metrics.RecordResolution(p.Spec.Name, len(set.Features))

	res := &BacktestResult{RunID: p.RunID, FeatureIDs: manifest.FeatureIDs}
	for _, symbol := range p.Spec.Symbols {
		data, err := r.loadWindow(ctx, symbol, set, p.From, p.To)
		if err != nil {
			return nil, err
		}
		table, err := r.enforcer.ComputeResolved(ctx, p.Spec, set, manifest, data)
		if err != nil {
			return nil, fmt.Errorf("compute features for %s: %w", symbol, err)
		}
		if err := r.sink.StoreTable(ctx, p.RunID, symbol, table); err != nil {
			return nil, fmt.Errorf("store features for %s: %w", symbol, err)
		}
		res.Symbols++
		for _, col := range table.Columns {
			res.Rows += len(col.Values)
		}
	}

	r.metrics.RecordLatency("backtest_run_seconds", time.Since(start).Seconds())
	r.log.Info("backtest run complete",
		applogger.String("run_id", p.RunID),
		applogger.Int("symbols", res.Symbols),
		applogger.Int("rows", res.Rows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

func (r *BacktestRunner) loadWindow(ctx context.Context, symbol string, set *models.ResolvedFeatureSet, from, to time.Time) (enforcer.MarketData, error) {
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
