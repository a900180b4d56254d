// Package resolver expands a validated strategy spec into the canonical
// ordered feature list. Two processes resolving equal specs must agree
// element-for-element: order is nn_inputs declaration order, then timeframe
// order (post "all"-expansion), then membership declaration order. Nothing
// here may reorder by name, hash, or clock.
package resolver

import (
	"fmt"

	"StratForge/internal/domain/models"
)

// Resolve expands spec into its canonical feature sequence. The spec must
// already have passed schema validation; Resolve panics on dangling
// references rather than degrading silently, because a partially resolved
// set would feed the network wrong columns without a crash.
func Resolve(spec *models.StrategySpec) *models.ResolvedFeatureSet {
	set := &models.ResolvedFeatureSet{}
	for _, sel := range spec.NNInputs {
		fs, ok := spec.FuzzySet(sel.FuzzySetID)
		if !ok {
			panic(fmt.Sprintf("resolver: nn_input selects undeclared fuzzy set %q; spec was not validated", sel.FuzzySetID))
		}
		indicatorID, output := models.SplitIndicatorRef(fs.IndicatorRef)
		if _, ok := spec.Indicator(indicatorID); !ok {
			panic(fmt.Sprintf("resolver: fuzzy set %q references undeclared indicator %q; spec was not validated", fs.ID, indicatorID))
		}
		for _, tf := range spec.SelectorTimeframes(sel) {
			for _, m := range fs.Memberships {
				set.Features = append(set.Features, models.ResolvedFeature{
					FeatureID:       FeatureID(tf, fs.ID, m.Name),
					Timeframe:       tf,
					FuzzySetID:      fs.ID,
					Membership:      m.Name,
					IndicatorID:     indicatorID,
					IndicatorOutput: output,
				})
			}
		}
	}
	return set
}

// FeatureID derives the stable column name for one resolved feature.
func FeatureID(timeframe, fuzzySetID, membership string) string {
	return fmt.Sprintf("%s_%s_%s", timeframe, fuzzySetID, membership)
}
