package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"
)

const strategyDoc = `
name: momentum_v1
symbols: [BTCUSDT, ETHUSDT]
training_timeframes: [5m, 1h]

indicators:
  rsi_fast:
    type: rsi
    params:
      period: 7
  bbands:
    type: bbands
    params:
      period: 20
      multiplier: 2.0

fuzzy_sets:
  rsi_fast:
    indicator: rsi_fast
    memberships:
      oversold:
        kind: triangular
        parameters: [0, 20, 35]
      overbought:
        kind: triangular
        parameters: [65, 80, 100]
  bbands_squeeze:
    indicator: bbands.upper
    memberships:
      tight:
        kind: trapezoid
        parameters: [0, 0, 0.5, 1.0]
      wide:
        kind: trapezoid
        parameters: [0.5, 1.0, 10, 10]

nn_inputs:
  - fuzzy_set: rsi_fast
    timeframes: [5m]
  - fuzzy_set: bbands_squeeze
    timeframes: all
`

func TestStrategyDecode(t *testing.T) {
	var spec StrategySpec
	require.NoError(t, yaml.Unmarshal([]byte(strategyDoc), &spec))

	assert.Equal(t, "momentum_v1", spec.Name)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, spec.Symbols)
	assert.Equal(t, []string{"5m", "1h"}, spec.Timeframes)

	require.Len(t, spec.Indicators, 2)
	assert.Equal(t, "rsi_fast", spec.Indicators[0].ID)
	assert.Equal(t, "rsi", spec.Indicators[0].Type)
	assert.Equal(t, 7, spec.Indicators[0].Params["period"])
	assert.Equal(t, "bbands", spec.Indicators[1].ID)

	require.Len(t, spec.FuzzySets, 2)
	assert.Equal(t, "bbands.upper", spec.FuzzySets[1].IndicatorRef)

	require.Len(t, spec.NNInputs, 2)
	assert.Equal(t, "rsi_fast", spec.NNInputs[0].FuzzySetID)
	assert.False(t, spec.NNInputs[0].All)
	assert.Equal(t, []string{"5m"}, spec.NNInputs[0].Timeframes)
	assert.True(t, spec.NNInputs[1].All)
}

// Membership order must survive decode: it defines feature order.
func TestStrategyDecodePreservesMembershipOrder(t *testing.T) {
	var spec StrategySpec
	require.NoError(t, yaml.Unmarshal([]byte(strategyDoc), &spec))

	names := make([]string, 0, 2)
	for _, m := range spec.FuzzySets[0].Memberships {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"oversold", "overbought"}, names)

	names = names[:0]
	for _, m := range spec.FuzzySets[1].Memberships {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"tight", "wide"}, names)
}

func TestStrategyDecodeRejectsBadTimeframesScalar(t *testing.T) {
	doc := `
name: x
nn_inputs:
  - fuzzy_set: a
    timeframes: everything
`
	var spec StrategySpec
	err := yaml.Unmarshal([]byte(doc), &spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 'all' or a list")
}

func TestSplitIndicatorRef(t *testing.T) {
	id, out := SplitIndicatorRef("bbands_20_2.upper")
	assert.Equal(t, "bbands_20_2", id)
	assert.Equal(t, "upper", out)

	id, out = SplitIndicatorRef("rsi_14")
	assert.Equal(t, "rsi_14", id)
	assert.Equal(t, "", out)

	// only the first dot splits
	id, out = SplitIndicatorRef("a.b.c")
	assert.Equal(t, "a", id)
	assert.Equal(t, "b.c", out)
}

func TestSelectorTimeframes(t *testing.T) {
	spec := StrategySpec{Timeframes: []string{"1h", "5m"}}

	assert.Equal(t, []string{"1h", "5m"}, spec.SelectorTimeframes(NNInputSelector{All: true}))
	assert.Equal(t, []string{"5m"}, spec.SelectorTimeframes(NNInputSelector{Timeframes: []string{"5m"}}))
}
