package repository

import (
	"fmt"
	"time"
)

// Timeframe is a candle resolution label ("5m", "1h", "1d"). Unlike the
// candle store's physical tables, the set of valid timeframes is declared by
// each strategy, so there is no global allow-list here.
type Timeframe string

// Duration parses the timeframe into a bucket width.
func (tf Timeframe) Duration() (time.Duration, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe: %q", string(tf))
	}
	unit := tf[len(tf)-1]
	var n int
	if _, err := fmt.Sscanf(string(tf[:len(tf)-1]), "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe: %q", string(tf))
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe unit in %q", string(tf))
	}
}

// Align truncates a time range to the timeframe's bucket boundaries.
func (tf Timeframe) Align(from, to time.Time) (time.Time, time.Time) {
	d, err := tf.Duration()
	if err != nil {
		return from, to
	}
	return from.Truncate(d), to.Truncate(d)
}
