// Package enforcer computes feature values at use time and reconciles them
// against the manifest persisted at training time. The manifest, not the
// live spec's resolution, is authoritative for column order: the spec may
// have been edited since training without retraining, and the same values in
// a different column order would feed the network silently wrong inputs.
package enforcer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/internal/resolver"
	applogger "StratForge/pkg/logger"
)

// IndicatorEvaluator computes indicator series over candles. Results are
// keyed by output name; single-output indicators use the "" key.
type IndicatorEvaluator interface {
	Compute(ctx context.Context, def models.IndicatorDef, candles []models.Candle) (map[string][]float64, error)
}

// FuzzyEvaluator maps an indicator value to a membership degree in [0,1].
type FuzzyEvaluator interface {
	Membership(kind string, params []float64, value float64) (float64, error)
}

// MarketData holds candles per timeframe, each series in ascending time order.
type MarketData map[string][]models.Candle

// FeatureSetMismatchError is fatal: the manifest expects features the spec
// can no longer produce. It enumerates every missing id, never just the
// first; callers must not proceed to inference with a partial feature set.
type FeatureSetMismatchError struct {
	Missing []string
}

func (e *FeatureSetMismatchError) Error() string {
	return fmt.Sprintf("feature set mismatch: %d manifest features not computed: %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Enforcer orchestrates resolution, evaluation and reconciliation. The
// evaluators are injected; the enforcer owns none of the math.
type Enforcer struct {
	indicators IndicatorEvaluator
	fuzzy      FuzzyEvaluator
	log        *applogger.Logger
	metrics    domrepo.Metrics
}

func New(ind IndicatorEvaluator, fz FuzzyEvaluator, log *applogger.Logger, metrics domrepo.Metrics) *Enforcer {
	return &Enforcer{indicators: ind, fuzzy: fz, log: log, metrics: metrics}
}

// Compute resolves spec, evaluates every feature over data, and returns the
// table reconciled and reordered against manifest. Pure given its inputs,
// aside from warning logs on dropped extras.
func (e *Enforcer) Compute(ctx context.Context, spec *models.StrategySpec, manifest *models.Manifest, data MarketData) (*models.FeatureTable, error) {
	return e.ComputeResolved(ctx, spec, resolver.Resolve(spec), manifest, data)
}

// ComputeResolved is the training-time entry point: the caller already holds
// the resolution (there it is the manifest-to-be) and may pass a nil
// manifest to skip reconciliation.
func (e *Enforcer) ComputeResolved(ctx context.Context, spec *models.StrategySpec, set *models.ResolvedFeatureSet, manifest *models.Manifest, data MarketData) (*models.FeatureTable, error) {
	start := time.Now()
	computed, err := e.evaluate(ctx, spec, set, data)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordError("feature_compute")
		}
		return nil, err
	}

	if manifest != nil {
		computed, err = e.reconcile(spec, computed, manifest)
		if err != nil {
			return nil, err
		}
	}

	if e.metrics != nil {
		e.metrics.RecordFeaturesComputed(spec.Name, len(computed.Columns))
		e.metrics.RecordLatency("feature_compute", time.Since(start).Seconds())
	}
	return computed, nil
}

// evaluate produces one column per resolved feature, in resolution order.
// Indicator series are computed once per (timeframe, indicator) pair.
func (e *Enforcer) evaluate(ctx context.Context, spec *models.StrategySpec, set *models.ResolvedFeatureSet, data MarketData) (*models.FeatureTable, error) {
	type indKey struct {
		tf string
		id string
	}
	seriesCache := make(map[indKey]map[string][]float64)

	table := &models.FeatureTable{Columns: make([]models.FeatureColumn, 0, len(set.Features))}
	for _, f := range set.Features {
		candles, ok := data[f.Timeframe]
		if !ok {
			return nil, fmt.Errorf("no market data for timeframe %q (feature %q)", f.Timeframe, f.FeatureID)
		}

		key := indKey{tf: f.Timeframe, id: f.IndicatorID}
		cols, ok := seriesCache[key]
		if !ok {
			ind, found := spec.Indicator(f.IndicatorID)
			if !found {
				panic(fmt.Sprintf("enforcer: resolved feature %q names undeclared indicator %q", f.FeatureID, f.IndicatorID))
			}
			var err error
			cols, err = e.indicators.Compute(ctx, *ind, candles)
			if err != nil {
				return nil, fmt.Errorf("compute indicator %q on %s: %w", f.IndicatorID, f.Timeframe, err)
			}
			seriesCache[key] = cols
		}

		series, ok := cols[f.IndicatorOutput]
		if !ok {
			return nil, fmt.Errorf("indicator %q produced no output %q (feature %q)", f.IndicatorID, f.IndicatorOutput, f.FeatureID)
		}

		fs, _ := spec.FuzzySet(f.FuzzySetID)
		member, ok := membership(fs, f.Membership)
		if !ok {
			panic(fmt.Sprintf("enforcer: resolved feature %q names undeclared membership %q", f.FeatureID, f.Membership))
		}

		col := models.FeatureColumn{
			FeatureID: f.FeatureID,
			Timeframe: f.Timeframe,
			Times:     make([]time.Time, len(candles)),
			Values:    make([]float64, len(series)),
		}
		for i, c := range candles {
			col.Times[i] = c.Bucket
		}
		for i, v := range series {
			deg, err := e.fuzzy.Membership(member.Kind, member.Parameters, v)
			if err != nil {
				return nil, fmt.Errorf("membership %q of fuzzy set %q: %w", f.Membership, f.FuzzySetID, err)
			}
			col.Values[i] = deg
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

// reconcile validates computed columns against the manifest and reorders the
// survivors to exactly the manifest's order. Missing ids are fatal; extra
// computed columns are dropped with a warning only.
func (e *Enforcer) reconcile(spec *models.StrategySpec, computed *models.FeatureTable, manifest *models.Manifest) (*models.FeatureTable, error) {
	byID := make(map[string]*models.FeatureColumn, len(computed.Columns))
	for i := range computed.Columns {
		byID[computed.Columns[i].FeatureID] = &computed.Columns[i]
	}

	var missing []string
	out := &models.FeatureTable{Columns: make([]models.FeatureColumn, 0, len(manifest.FeatureIDs))}
	expected := make(map[string]bool, len(manifest.FeatureIDs))
	for _, id := range manifest.FeatureIDs {
		expected[id] = true
		col, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out.Columns = append(out.Columns, *col)
	}
	if len(missing) > 0 {
		if e.metrics != nil {
			e.metrics.RecordMismatch(spec.Name)
		}
		return nil, &FeatureSetMismatchError{Missing: missing}
	}

	var extra []string
	for _, col := range computed.Columns {
		if !expected[col.FeatureID] {
			extra = append(extra, col.FeatureID)
		}
	}
	if len(extra) > 0 && e.log != nil {
		e.log.Warn("dropping features not present in training manifest",
			applogger.String("strategy", spec.Name),
			applogger.Strings("feature_ids", extra),
		)
	}
	return out, nil
}

func membership(fs *models.FuzzySetDef, name string) (models.MembershipDef, bool) {
	for _, m := range fs.Memberships {
		if m.Name == name {
			return m, true
		}
	}
	return models.MembershipDef{}, false
}
