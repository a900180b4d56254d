package models

import "time"

// ResolvedFeature is one neural-network input column derived from a strategy
// spec. FeatureID is "{timeframe}_{fuzzy_set_id}_{membership}" and is unique
// within a resolution. IndicatorOutput is empty for single-output indicators.
type ResolvedFeature struct {
	FeatureID       string
	Timeframe       string
	FuzzySetID      string
	Membership      string
	IndicatorID     string
	IndicatorOutput string
}

// ResolvedFeatureSet is the canonically ordered feature sequence produced by
// the resolver. Order is a pure function of the spec: nn_inputs declaration
// order, then timeframe order, then membership declaration order.
type ResolvedFeatureSet struct {
	Features []ResolvedFeature
}

// FeatureIDs returns the ids in canonical order.
func (s *ResolvedFeatureSet) FeatureIDs() []string {
	ids := make([]string, len(s.Features))
	for i, f := range s.Features {
		ids[i] = f.FeatureID
	}
	return ids
}

// IndicatorsFor returns the indicator ids needed on a timeframe, deduplicated
// in first-appearance order. Callers use this to skip computing indicators
// never referenced on a given timeframe.
func (s *ResolvedFeatureSet) IndicatorsFor(tf string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range s.Features {
		if f.Timeframe != tf || seen[f.IndicatorID] {
			continue
		}
		seen[f.IndicatorID] = true
		out = append(out, f.IndicatorID)
	}
	return out
}

// FuzzySetsFor returns the fuzzy set ids contributing features on a
// timeframe, deduplicated in first-appearance order.
func (s *ResolvedFeatureSet) FuzzySetsFor(tf string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range s.Features {
		if f.Timeframe != tf || seen[f.FuzzySetID] {
			continue
		}
		seen[f.FuzzySetID] = true
		out = append(out, f.FuzzySetID)
	}
	return out
}

// Timeframes returns the distinct timeframes in first-appearance order.
func (s *ResolvedFeatureSet) Timeframes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range s.Features {
		if seen[f.Timeframe] {
			continue
		}
		seen[f.Timeframe] = true
		out = append(out, f.Timeframe)
	}
	return out
}

// FeatureColumn holds the computed values of one feature. Times carry the
// candle buckets of the column's timeframe; columns of different timeframes
// are not row-aligned with each other.
type FeatureColumn struct {
	FeatureID string
	Timeframe string
	Times     []time.Time
	Values    []float64
}

// FeatureTable is an ordered set of computed feature columns. Column order is
// the contract with the consuming network: the enforcer guarantees it matches
// the manifest exactly.
type FeatureTable struct {
	Columns []FeatureColumn
}

// FeatureIDs returns the column ids in table order.
func (t *FeatureTable) FeatureIDs() []string {
	ids := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		ids[i] = c.FeatureID
	}
	return ids
}

// Column returns the column with the given feature id.
func (t *FeatureTable) Column(featureID string) (*FeatureColumn, bool) {
	for i := range t.Columns {
		if t.Columns[i].FeatureID == featureID {
			return &t.Columns[i], true
		}
	}
	return nil, false
}
