package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StratForge/internal/domain/models"
)

func momentumSpec() *models.StrategySpec {
	return &models.StrategySpec{
		Name:       "momentum_v1",
		Timeframes: []string{"5m", "1h"},
		Indicators: []models.IndicatorDef{
			{ID: "rsi_fast", Type: "rsi", Params: map[string]interface{}{"period": 7}},
			{ID: "bbands", Type: "bbands"},
		},
		FuzzySets: []models.FuzzySetDef{
			{
				ID:           "rsi_fast",
				IndicatorRef: "rsi_fast",
				Memberships: []models.MembershipDef{
					{Name: "oversold", Kind: "triangular", Parameters: []float64{0, 20, 35}},
					{Name: "overbought", Kind: "triangular", Parameters: []float64{65, 80, 100}},
				},
			},
			{
				ID:           "bbands_squeeze",
				IndicatorRef: "bbands.upper",
				Memberships: []models.MembershipDef{
					{Name: "tight", Kind: "trapezoid", Parameters: []float64{0, 0, 0.5, 1}},
					{Name: "wide", Kind: "trapezoid", Parameters: []float64{0.5, 1, 10, 10}},
				},
			},
		},
		NNInputs: []models.NNInputSelector{
			{FuzzySetID: "rsi_fast", Timeframes: []string{"5m"}},
			{FuzzySetID: "bbands_squeeze", All: true},
		},
	}
}

func TestResolveOrder(t *testing.T) {
	set := Resolve(momentumSpec())

	require.Equal(t, []string{
		"5m_rsi_fast_oversold",
		"5m_rsi_fast_overbought",
		"5m_bbands_squeeze_tight",
		"5m_bbands_squeeze_wide",
		"1h_bbands_squeeze_tight",
		"1h_bbands_squeeze_wide",
	}, set.FeatureIDs())
}

func TestResolveDeterministic(t *testing.T) {
	a := Resolve(momentumSpec())
	b := Resolve(momentumSpec())
	require.Equal(t, a.Features, b.Features)
}

func TestResolveCarriesIndicatorBinding(t *testing.T) {
	set := Resolve(momentumSpec())

	first := set.Features[0]
	assert.Equal(t, "5m", first.Timeframe)
	assert.Equal(t, "rsi_fast", first.FuzzySetID)
	assert.Equal(t, "oversold", first.Membership)
	assert.Equal(t, "rsi_fast", first.IndicatorID)
	assert.Equal(t, "", first.IndicatorOutput)

	squeeze := set.Features[2]
	assert.Equal(t, "bbands", squeeze.IndicatorID)
	assert.Equal(t, "upper", squeeze.IndicatorOutput)
}

func TestResolveAllExpandsDeclaredOrder(t *testing.T) {
	spec := momentumSpec()
	spec.Timeframes = []string{"1h", "5m"}
	set := Resolve(spec)

	assert.Equal(t, []string{
		"5m_rsi_fast_oversold",
		"5m_rsi_fast_overbought",
		"1h_bbands_squeeze_tight",
		"1h_bbands_squeeze_wide",
		"5m_bbands_squeeze_tight",
		"5m_bbands_squeeze_wide",
	}, set.FeatureIDs())
}

func TestResolvePanicsOnUndeclaredFuzzySet(t *testing.T) {
	spec := momentumSpec()
	spec.NNInputs = append(spec.NNInputs, models.NNInputSelector{FuzzySetID: "ghost", All: true})

	require.Panics(t, func() { Resolve(spec) })
}

func TestResolvePanicsOnUndeclaredIndicator(t *testing.T) {
	spec := momentumSpec()
	spec.FuzzySets[0].IndicatorRef = "missing_ind"

	require.Panics(t, func() { Resolve(spec) })
}

func TestFeatureID(t *testing.T) {
	assert.Equal(t, "5m_rsi_fast_oversold", FeatureID("5m", "rsi_fast", "oversold"))
}

func TestResolvedSetHelpers(t *testing.T) {
	set := Resolve(momentumSpec())

	assert.Equal(t, []string{"5m", "1h"}, set.Timeframes())
	assert.Equal(t, []string{"rsi_fast", "bbands"}, set.IndicatorsFor("5m"))
	assert.Equal(t, []string{"bbands"}, set.IndicatorsFor("1h"))
	assert.Equal(t, []string{"bbands_squeeze"}, set.FuzzySetsFor("1h"))
}
