package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Each membership kind takes a fixed number of parameters. The table is the
// validator's source of truth for arity checks.
var arities = map[string]int{
	"triangular": 3,
	"trapezoid":  4,
	"gaussian":   2,
}

// Catalog resolves membership function kinds.
type Catalog struct{}

func NewCatalog() *Catalog { return &Catalog{} }

// Arity returns the expected parameter count for a kind, case-insensitively.
func (*Catalog) Arity(kind string) (int, bool) {
	n, ok := arities[strings.ToLower(kind)]
	return n, ok
}

// Kinds lists the registered kinds, sorted.
func (*Catalog) Kinds() []string {
	out := make([]string, 0, len(arities))
	for k := range arities {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Evaluator maps indicator values to membership degrees in [0,1].
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// Membership evaluates one membership function at x. NaN inputs (indicator
// warmup) yield zero membership.
func (*Evaluator) Membership(kind string, params []float64, x float64) (float64, error) {
	want, ok := arities[strings.ToLower(kind)]
	if !ok {
		return 0, fmt.Errorf("unknown membership kind %q", kind)
	}
	if len(params) != want {
		return 0, fmt.Errorf("membership kind %q expects %d parameters, got %d", kind, want, len(params))
	}
	if math.IsNaN(x) {
		return 0, nil
	}
	switch strings.ToLower(kind) {
	case "triangular":
		return clamp01(triangular(params[0], params[1], params[2], x)), nil
	case "trapezoid":
		return clamp01(trapezoid(params[0], params[1], params[2], params[3], x)), nil
	case "gaussian":
		return clamp01(gaussian(params[0], params[1], x)), nil
	}
	return 0, fmt.Errorf("unknown membership kind %q", kind)
}

// triangular rises from a to peak b, falls to c.
func triangular(a, b, c, x float64) float64 {
	switch {
	case x <= a || x >= c:
		// degenerate shoulders: a==b means a vertical left edge
		if x == b {
			return 1
		}
		return 0
	case x < b:
		return (x - a) / (b - a)
	case x == b:
		return 1
	default:
		return (c - x) / (c - b)
	}
}

// trapezoid rises a..b, holds 1 on b..c, falls c..d.
func trapezoid(a, b, c, d, x float64) float64 {
	switch {
	case x < a || x > d:
		return 0
	case x < b:
		return (x - a) / (b - a)
	case x <= c:
		return 1
	default:
		return (d - x) / (d - c)
	}
}

// gaussian is exp(-(x-mu)^2 / (2 sigma^2)).
func gaussian(mu, sigma, x float64) float64 {
	if sigma == 0 {
		if x == mu {
			return 1
		}
		return 0
	}
	d := (x - mu) / sigma
	return math.Exp(-0.5 * d * d)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
