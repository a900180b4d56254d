package models

import "time"

// Manifest is the persisted record of the feature order a model was trained
// with. It is written exactly once at the end of training and is read-only
// afterwards; at backtest/inference time it, not the live spec's resolution,
// is authoritative for column order.
type Manifest struct {
	Strategy           string             `json:"strategy"`
	FeatureIDs         []string           `json:"feature_ids"`
	TrainingSymbols    []string           `json:"training_symbols"`
	TrainingTimeframes []string           `json:"training_timeframes"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// NewManifest builds the manifest-to-be from a training-time resolution.
func NewManifest(spec *StrategySpec, set *ResolvedFeatureSet, metrics map[string]float64) *Manifest {
	return &Manifest{
		Strategy:           spec.Name,
		FeatureIDs:         set.FeatureIDs(),
		TrainingSymbols:    append([]string(nil), spec.Symbols...),
		TrainingTimeframes: append([]string(nil), spec.Timeframes...),
		Metrics:            metrics,
		CreatedAt:          time.Now().UTC(),
	}
}
