package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframeDuration(t *testing.T) {
	cases := map[Timeframe]time.Duration{
		"30s": 30 * time.Second,
		"5m":  5 * time.Minute,
		"1h":  time.Hour,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
	}
	for tf, want := range cases {
		got, err := tf.Duration()
		require.NoError(t, err, "tf=%s", tf)
		assert.Equal(t, want, got, "tf=%s", tf)
	}

	for _, tf := range []Timeframe{"", "m", "5", "0m", "-5m", "5w"} {
		_, err := tf.Duration()
		assert.Error(t, err, "tf=%s", tf)
	}
}

func TestTimeframeAlign(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 7, 42, 0, time.UTC)
	to := time.Date(2024, 3, 1, 11, 3, 9, 0, time.UTC)

	af, at := Timeframe("5m").Align(from, to)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC), af)
	assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), at)

	// unparsable timeframes pass the range through unchanged
	af, at = Timeframe("bogus").Align(from, to)
	assert.Equal(t, from, af)
	assert.Equal(t, to, at)
}
