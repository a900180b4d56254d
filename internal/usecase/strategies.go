package usecase

import (
	"context"
	"fmt"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/internal/resolver"
	"StratForge/internal/strategy"

	"gopkg.in/yaml.v3"
)

// StrategiesUseCase backs the HTTP API: dry-run validation, feature
// resolution, and manifest lookup.
type StrategiesUseCase struct {
	loader    *strategy.Loader
	validator *strategy.Validator
	manifests domrepo.ManifestStore
	candles   domrepo.CandleStore
	metrics   domrepo.Metrics
}

func NewStrategiesUseCase(loader *strategy.Loader, validator *strategy.Validator, manifests domrepo.ManifestStore, candles domrepo.CandleStore, metrics domrepo.Metrics) *StrategiesUseCase {
	return &StrategiesUseCase{loader: loader, validator: validator, manifests: manifests, candles: candles, metrics: metrics}
}

// ValidateYAML parses and validates a strategy document without resolving it.
// A non-nil report is returned even when the document is invalid; the error
// is reserved for YAML that cannot be parsed at all.
func (uc *StrategiesUseCase) ValidateYAML(ctx context.Context, doc []byte) (*strategy.Report, error) {
	spec, err := parseSpec(doc)
	if err != nil {
		return nil, err
	}
	report := uc.validator.Validate(spec)
	uc.metrics.RecordValidationIssues(spec.Name, len(report.Errors), len(report.Warnings))
	return report, nil
}

type ResolveResult struct {
	Spec   *models.StrategySpec
	Report *strategy.Report
	Set    *models.ResolvedFeatureSet
}

// ResolveYAML validates a strategy document and, when it is valid, expands it
// into its canonical feature list.
func (uc *StrategiesUseCase) ResolveYAML(ctx context.Context, doc []byte) (*ResolveResult, error) {
	spec, report, err := uc.loader.Parse(doc)
	if spec != nil {
		uc.metrics.RecordValidationIssues(spec.Name, len(report.Errors), len(report.Warnings))
	}
	if err != nil {
		return &ResolveResult{Spec: spec, Report: report}, err
	}
	set := resolver.Resolve(spec)
	uc.metrics.RecordResolution(spec.Name, len(set.Features))
	return &ResolveResult{Spec: spec, Report: report, Set: set}, nil
}

func (uc *StrategiesUseCase) GetManifest(ctx context.Context, runID string) (*models.Manifest, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id required")
	}
	return uc.manifests.Load(ctx, runID)
}

// LatestCandles returns the newest n candles for a symbol at one timeframe,
// oldest first, for previewing what a training or backtest run would see.
func (uc *StrategiesUseCase) LatestCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) ([]models.Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if _, err := tf.Duration(); err != nil {
		return nil, err
	}
	if n <= 0 || n > 1000 {
		n = 100
	}
	return uc.candles.GetLatestNCandles(ctx, symbol, n, tf)
}

func parseSpec(doc []byte) (*models.StrategySpec, error) {
	var spec models.StrategySpec
	if err := yaml.Unmarshal(doc, &spec); err != nil {
		return nil, fmt.Errorf("parse strategy: %w", err)
	}
	return &spec, nil
}
