package models

import "time"

// Candle is an OHLCV record, the raw market data indicators are computed on.
type Candle struct {
	Bucket    time.Time
	Symbol    string
	Timeframe string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
