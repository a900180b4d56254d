package indicators

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StratForge/internal/domain/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Close: c, High: c + 1, Low: c - 1}
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2, got[2], 1e-12)
	assert.InDelta(t, 3, got[3], 1e-12)
	assert.InDelta(t, 4, got[4], 1e-12)
}

func TestSMAShortSeries(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for _, v := range got {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMASeededWithSMA(t *testing.T) {
	got := EMA([]float64{2, 4, 6, 8}, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 4, got[2], 1e-12) // SMA seed of first 3
	// k = 2/(3+1) = 0.5; (8-4)*0.5 + 4
	assert.InDelta(t, 6, got[3], 1e-12)
}

func TestRSIAllGains(t *testing.T) {
	got := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(got[i]), "i=%d", i)
	}
	for i := 3; i < len(got); i++ {
		assert.Equal(t, 100.0, got[i], "i=%d", i)
	}
}

func TestRSIMidrange(t *testing.T) {
	// alternating gains and losses should stay strictly inside (0, 100)
	got := RSI([]float64{10, 12, 11, 13, 12, 14, 13}, 3)
	for i := 3; i < len(got); i++ {
		assert.Greater(t, got[i], 0.0)
		assert.Less(t, got[i], 100.0)
	}
}

func TestBollingerBandsConstantSeries(t *testing.T) {
	up, mid, low := BollingerBands([]float64{5, 5, 5, 5, 5}, 3, 2)

	assert.True(t, math.IsNaN(mid[1]))
	for i := 2; i < 5; i++ {
		assert.InDelta(t, 5, mid[i], 1e-12)
		assert.InDelta(t, 5, up[i], 1e-12) // sd=0 collapses the bands
		assert.InDelta(t, 5, low[i], 1e-12)
	}
}

func TestBollingerBandsSpread(t *testing.T) {
	up, mid, low := BollingerBands([]float64{1, 2, 3}, 3, 2)
	require.InDelta(t, 2, mid[2], 1e-12)
	assert.Greater(t, up[2], mid[2])
	assert.Less(t, low[2], mid[2])
	assert.InDelta(t, mid[2]-low[2], up[2]-mid[2], 1e-12)
}

func TestEvaluatorSingleOutputKey(t *testing.T) {
	e := NewEvaluator(NewRegistry())
	def := models.IndicatorDef{ID: "rsi_fast", Type: "rsi", Params: map[string]interface{}{"period": 3}}

	out, err := e.Compute(context.Background(), def, candlesFromCloses(1, 2, 3, 4, 5))
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, ok := out[""]
	assert.True(t, ok)
}

func TestEvaluatorMultiOutputKeys(t *testing.T) {
	e := NewEvaluator(NewRegistry())
	candles := candlesFromCloses(1, 2, 3, 4, 5, 6)

	out, err := e.Compute(context.Background(), models.IndicatorDef{ID: "bb", Type: "bbands", Params: map[string]interface{}{"period": 3}}, candles)
	require.NoError(t, err)
	for _, key := range []string{"upper", "middle", "lower"} {
		assert.Contains(t, out, key)
		assert.Len(t, out[key], len(candles))
	}

	out, err = e.Compute(context.Background(), models.IndicatorDef{ID: "m", Type: "macd", Params: map[string]interface{}{"fast": 2, "slow": 3, "signal": 2}}, candles)
	require.NoError(t, err)
	for _, key := range []string{"macd", "signal", "hist"} {
		assert.Contains(t, out, key)
	}
}

func TestEvaluatorUnknownType(t *testing.T) {
	e := NewEvaluator(NewRegistry())

	_, err := e.Compute(context.Background(), models.IndicatorDef{ID: "x", Type: "vwap"}, candlesFromCloses(1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "vwap"`)
}

func TestEvaluatorTypeCaseInsensitive(t *testing.T) {
	e := NewEvaluator(NewRegistry())

	out, err := e.Compute(context.Background(), models.IndicatorDef{ID: "x", Type: "RSI", Params: map[string]interface{}{"period": 2}}, candlesFromCloses(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Contains(t, out, "")
}

func TestParamDefaults(t *testing.T) {
	assert.Equal(t, 14, intParam(nil, "period", 14))
	assert.Equal(t, 7, intParam(map[string]interface{}{"period": 7}, "period", 14))
	assert.Equal(t, 7, intParam(map[string]interface{}{"period": 7.0}, "period", 14))
	assert.Equal(t, 14, intParam(map[string]interface{}{"period": "7"}, "period", 14))

	assert.Equal(t, 2.0, floatParam(nil, "multiplier", 2))
	assert.Equal(t, 2.5, floatParam(map[string]interface{}{"multiplier": 2.5}, "multiplier", 2))
	assert.Equal(t, 3.0, floatParam(map[string]interface{}{"multiplier": 3}, "multiplier", 2))
}
