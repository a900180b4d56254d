package strategy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
name: ok
training_timeframes: [5m]
indicators:
  rsi_fast:
    type: rsi
fuzzy_sets:
  rsi_fast:
    indicator: rsi_fast
    memberships:
      low:
        kind: triangular
        parameters: [0, 20, 35]
nn_inputs:
  - fuzzy_set: rsi_fast
    timeframes: [5m]
`

func TestLoaderParseValid(t *testing.T) {
	l := NewLoader(newTestValidator(), nil)

	spec, report, err := l.Parse([]byte(validDoc))
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.True(t, report.Valid())
	assert.Equal(t, "ok", spec.Name)
}

func TestLoaderParseInvalidStrategy(t *testing.T) {
	doc := `
name: bad
training_timeframes: [5m]
indicators:
  close:
    type: rsi
fuzzy_sets:
  fs:
    indicator: close
    memberships:
      low:
        kind: triangular
        parameters: [0, 20, 35]
nn_inputs:
  - fuzzy_set: fs
    timeframes: [5m]
`
	l := NewLoader(newTestValidator(), nil)

	spec, report, err := l.Parse([]byte(doc))
	require.ErrorIs(t, err, ErrInvalidStrategy)
	assert.Nil(t, spec)
	require.NotNil(t, report)
	assert.True(t, report.HasKind(KindReservedFeatureID))
}

func TestLoaderParseMalformedYAML(t *testing.T) {
	l := NewLoader(newTestValidator(), nil)

	spec, report, err := l.Parse([]byte("{not yaml"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidStrategy))
	assert.Nil(t, spec)
	assert.Nil(t, report)
}

func TestLoaderLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o644))

	l := NewLoader(newTestValidator(), nil)
	spec, _, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", spec.Name)

	_, _, err = l.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
