package indicators

import (
	"context"
	"fmt"
	"math"
	"strings"

	"StratForge/internal/domain/models"
)

// Evaluator computes indicator series over OHLCV candles. Output series are
// keyed by output name; single-output indicators use the "" key, matching the
// empty indicator_output of a bare (dot-free) reference.
//
// All series have the same length as the input candles; positions inside the
// warmup window hold NaN so downstream fuzzy evaluation can treat them as
// "no membership" instead of a fake zero reading.
type Evaluator struct {
	reg *Registry
}

func NewEvaluator(reg *Registry) *Evaluator {
	return &Evaluator{reg: reg}
}

// Compute evaluates one indicator definition over candles.
func (e *Evaluator) Compute(ctx context.Context, def models.IndicatorDef, candles []models.Candle) (map[string][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, ok := e.reg.Lookup(def.Type)
	if !ok {
		return nil, fmt.Errorf("indicator %q: unknown type %q", def.ID, def.Type)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	switch strings.ToLower(meta.Type) {
	case "rsi":
		return single(RSI(closes, intParam(def.Params, "period", 14))), nil
	case "sma":
		return single(SMA(closes, intParam(def.Params, "period", 20))), nil
	case "ema":
		return single(EMA(closes, intParam(def.Params, "period", 20))), nil
	case "atr":
		return single(ATR(candles, intParam(def.Params, "period", 14))), nil
	case "macd":
		line, sig, hist := MACD(closes,
			intParam(def.Params, "fast", 12),
			intParam(def.Params, "slow", 26),
			intParam(def.Params, "signal", 9))
		return map[string][]float64{"macd": line, "signal": sig, "hist": hist}, nil
	case "bbands":
		up, mid, low := BollingerBands(closes,
			intParam(def.Params, "period", 20),
			floatParam(def.Params, "multiplier", 2))
		return map[string][]float64{"upper": up, "middle": mid, "lower": low}, nil
	default:
		return nil, fmt.Errorf("indicator %q: type %q registered but not computable", def.ID, def.Type)
	}
}

func single(series []float64) map[string][]float64 {
	return map[string][]float64{"": series}
}

// SMA computes a simple moving average. Warmup positions are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the SMA of the
// first period values.
func EMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out[period-1] = prev
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// RSI computes Wilder's relative strength index in [0,100].
func RSI(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR computes Wilder's average true range.
func ATR(candles []models.Candle, period int) []float64 {
	out := nanSeries(len(candles))
	if period <= 0 || len(candles) <= period {
		return out
	}
	tr := make([]float64, len(candles))
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		tr[i] = math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	prev := sum / float64(period)
	out[period-1] = prev
	for i := period; i < len(candles); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}
	return out
}

// MACD computes the MACD line, its signal EMA, and the histogram.
func MACD(values []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)
	line = nanSeries(len(values))
	for i := range values {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}
	// signal EMA over the defined part of the line
	sig = nanSeries(len(values))
	hist = nanSeries(len(values))
	start := firstDefined(line)
	if start < 0 || len(values)-start < signal {
		return line, sig, hist
	}
	sub := EMA(line[start:], signal)
	for i, v := range sub {
		sig[start+i] = v
		if !math.IsNaN(v) && !math.IsNaN(line[start+i]) {
			hist[start+i] = line[start+i] - v
		}
	}
	return line, sig, hist
}

// BollingerBands computes the upper/middle/lower bands at mult standard
// deviations around the period SMA.
func BollingerBands(values []float64, period int, mult float64) (upper, middle, lower []float64) {
	middle = SMA(values, period)
	upper = nanSeries(len(values))
	lower = nanSeries(len(values))
	if period <= 1 || len(values) < period {
		return upper, middle, lower
	}
	for i := period - 1; i < len(values); i++ {
		m := middle[i]
		var sum2 float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - m
			sum2 += d * d
		}
		sd := math.Sqrt(sum2 / float64(period))
		upper[i] = m + mult*sd
		lower[i] = m - mult*sd
	}
	return upper, middle, lower
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstDefined(series []float64) int {
	for i, v := range series {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

func intParam(params map[string]interface{}, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func floatParam(params map[string]interface{}, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}
