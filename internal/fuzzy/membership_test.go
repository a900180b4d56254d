package fuzzy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangular(t *testing.T) {
	e := NewEvaluator()
	params := []float64{0, 20, 40}

	cases := []struct {
		x    float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{10, 0.5},
		{20, 1},
		{30, 0.5},
		{40, 0},
		{50, 0},
	}
	for _, tc := range cases {
		got, err := e.Membership("triangular", params, tc.x)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-12, "x=%v", tc.x)
	}
}

func TestTrapezoid(t *testing.T) {
	e := NewEvaluator()
	params := []float64{0, 10, 20, 40}

	cases := []struct {
		x    float64
		want float64
	}{
		{-1, 0},
		{5, 0.5},
		{10, 1},
		{15, 1},
		{20, 1},
		{30, 0.5},
		{40, 0},
		{41, 0},
	}
	for _, tc := range cases {
		got, err := e.Membership("trapezoid", params, tc.x)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-12, "x=%v", tc.x)
	}
}

func TestGaussian(t *testing.T) {
	e := NewEvaluator()

	got, err := e.Membership("gaussian", []float64{50, 10}, 50)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = e.Membership("gaussian", []float64{50, 10}, 60)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(-0.5), got, 1e-12)

	// zero sigma degenerates to a point mass
	got, err = e.Membership("gaussian", []float64{50, 0}, 50)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	got, err = e.Membership("gaussian", []float64{50, 0}, 51)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMembershipNaNInput(t *testing.T) {
	e := NewEvaluator()

	got, err := e.Membership("triangular", []float64{0, 20, 40}, math.NaN())
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMembershipKindCaseInsensitive(t *testing.T) {
	e := NewEvaluator()

	got, err := e.Membership("Triangular", []float64{0, 20, 40}, 20)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestMembershipErrors(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Membership("sigmoid", nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown membership kind "sigmoid"`)

	_, err = e.Membership("triangular", []float64{0, 20}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 3 parameters, got 2")
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()

	n, ok := c.Arity("trapezoid")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = c.Arity("GAUSSIAN")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = c.Arity("sigmoid")
	assert.False(t, ok)

	assert.Equal(t, []string{"gaussian", "trapezoid", "triangular"}, c.Kinds())
}
