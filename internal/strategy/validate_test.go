package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StratForge/internal/domain/models"
	"StratForge/internal/fuzzy"
	"StratForge/internal/indicators"
)

func newTestValidator() *Validator {
	return NewValidator(indicators.NewRegistry(), fuzzy.NewCatalog())
}

func validSpec() *models.StrategySpec {
	return &models.StrategySpec{
		Name:       "test",
		Timeframes: []string{"5m", "1h"},
		Indicators: []models.IndicatorDef{
			{ID: "rsi_fast", Type: "rsi"},
		},
		FuzzySets: []models.FuzzySetDef{
			{
				ID:           "rsi_fast",
				IndicatorRef: "rsi_fast",
				Memberships: []models.MembershipDef{
					{Name: "low", Kind: "triangular", Parameters: []float64{0, 20, 35}},
				},
			},
		},
		NNInputs: []models.NNInputSelector{
			{FuzzySetID: "rsi_fast", Timeframes: []string{"5m"}},
		},
	}
}

func TestValidateCleanSpec(t *testing.T) {
	r := newTestValidator().Validate(validSpec())
	assert.True(t, r.Valid())
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestValidateEmptyFeatureID(t *testing.T) {
	spec := validSpec()
	spec.Indicators = append(spec.Indicators, models.IndicatorDef{ID: "", Type: "sma"})

	r := newTestValidator().Validate(spec)
	assert.False(t, r.Valid())
	assert.True(t, r.HasKind(KindMissingFeatureID))
}

func TestValidateFeatureIDFormat(t *testing.T) {
	cases := map[string]bool{
		"rsi_fast": true,
		"rsi-fast": true,
		"RSI14":    true,
		"9lives":   false,
		"rsi fast": false,
		"_leading": false,
		"has.dot":  false,
	}
	for id, ok := range cases {
		spec := validSpec()
		spec.Indicators[0].ID = id
		spec.FuzzySets[0].IndicatorRef = id

		r := newTestValidator().Validate(spec)
		if ok {
			assert.False(t, r.HasKind(KindInvalidFeatureIDFormat), "id %q should be accepted", id)
		} else {
			assert.True(t, r.HasKind(KindInvalidFeatureIDFormat), "id %q should be rejected", id)
		}
	}
}

func TestValidateReservedIDExactMatchOnly(t *testing.T) {
	spec := validSpec()
	spec.Indicators[0].ID = "Close"
	spec.FuzzySets[0].IndicatorRef = "Close"
	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindReservedFeatureID))

	spec = validSpec()
	spec.Indicators[0].ID = "close_sma"
	spec.FuzzySets[0].IndicatorRef = "close_sma"
	r = newTestValidator().Validate(spec)
	assert.False(t, r.HasKind(KindReservedFeatureID))
}

func TestValidateDuplicateIndicatorID(t *testing.T) {
	spec := validSpec()
	spec.Indicators = append(spec.Indicators, models.IndicatorDef{ID: "rsi_fast", Type: "sma"})

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindDuplicateFeatureID))
}

func TestValidateUnknownTypeSuggestsClosest(t *testing.T) {
	spec := validSpec()
	spec.Indicators[0].Type = "rsii"

	r := newTestValidator().Validate(spec)
	require.True(t, r.HasKind(KindUnknownIndicatorType))

	var msg string
	for _, is := range r.Errors {
		if is.Kind == KindUnknownIndicatorType {
			msg = is.Message
		}
	}
	assert.Contains(t, msg, `did you mean "rsi"?`)
}

func TestValidateMembershipKindAndArity(t *testing.T) {
	spec := validSpec()
	spec.FuzzySets[0].Memberships = []models.MembershipDef{
		{Name: "bad_kind", Kind: "sigmoid", Parameters: []float64{1, 2}},
		{Name: "bad_arity", Kind: "triangular", Parameters: []float64{1, 2}},
	}

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindUnknownMembershipKind))
	assert.True(t, r.HasKind(KindInvalidMembershipArity))
}

func TestValidateUnknownIndicatorReference(t *testing.T) {
	spec := validSpec()
	spec.FuzzySets[0].IndicatorRef = "nope"

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindUnknownIndicatorReference))
	// rsi_fast is now unreferenced too
	assert.True(t, r.HasKind(KindMissingFuzzySetForIndicator))
}

func TestValidateDotOnSingleOutput(t *testing.T) {
	spec := validSpec()
	spec.FuzzySets[0].IndicatorRef = "rsi_fast.value"

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindDotOnSingleOutput))
}

func TestValidateInvalidOutputNameListsValid(t *testing.T) {
	spec := validSpec()
	spec.Indicators[0] = models.IndicatorDef{ID: "bb", Type: "bbands"}
	spec.FuzzySets[0].IndicatorRef = "bb.top"

	r := newTestValidator().Validate(spec)
	require.True(t, r.HasKind(KindInvalidOutputName))

	var msg string
	for _, is := range r.Errors {
		if is.Kind == KindInvalidOutputName {
			msg = is.Message
		}
	}
	assert.Contains(t, msg, "upper, middle, lower")
}

func TestValidateOrphanedFuzzySetWarnsPerSet(t *testing.T) {
	spec := validSpec()
	spec.FuzzySets = append(spec.FuzzySets, models.FuzzySetDef{
		ID:           "rsi_slow_zone",
		IndicatorRef: "rsi_fast",
		Memberships: []models.MembershipDef{
			{Name: "mid", Kind: "gaussian", Parameters: []float64{50, 10}},
		},
	})

	r := newTestValidator().Validate(spec)
	assert.True(t, r.Valid(), "orphaned fuzzy set is a warning, not an error")
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, KindOrphanedFuzzySet, r.Warnings[0].Kind)
	assert.Equal(t, "rsi_slow_zone", r.Warnings[0].Subject)
}

func TestValidateNNInputUnknownFuzzySet(t *testing.T) {
	spec := validSpec()
	spec.NNInputs = append(spec.NNInputs, models.NNInputSelector{FuzzySetID: "ghost", All: true})

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindUnknownFuzzySetReference))
}

func TestValidateNNInputUnknownTimeframe(t *testing.T) {
	spec := validSpec()
	spec.NNInputs[0].Timeframes = []string{"5m", "4h"}

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindUnknownTimeframe))
}

func TestValidateDuplicateSelectorPair(t *testing.T) {
	spec := validSpec()
	spec.NNInputs = append(spec.NNInputs, models.NNInputSelector{FuzzySetID: "rsi_fast", Timeframes: []string{"5m"}})

	r := newTestValidator().Validate(spec)
	assert.True(t, r.HasKind(KindDuplicateFeatureID))
}

func TestValidateAccumulatesAllFindings(t *testing.T) {
	spec := &models.StrategySpec{
		Name:       "broken",
		Timeframes: []string{"5m"},
		Indicators: []models.IndicatorDef{
			{ID: "close", Type: "rsii"},
			{ID: "9bad", Type: "sma"},
			{ID: "lonely", Type: "ema"},
		},
		FuzzySets: []models.FuzzySetDef{
			{
				ID:           "fs",
				IndicatorRef: "missing",
				Memberships: []models.MembershipDef{
					{Name: "m", Kind: "nope", Parameters: nil},
				},
			},
		},
		NNInputs: []models.NNInputSelector{
			{FuzzySetID: "ghost", Timeframes: []string{"1d"}},
		},
	}

	r := newTestValidator().Validate(spec)
	assert.False(t, r.Valid())
	for _, kind := range []IssueKind{
		KindReservedFeatureID,
		KindInvalidFeatureIDFormat,
		KindUnknownIndicatorType,
		KindUnknownMembershipKind,
		KindUnknownIndicatorReference,
		KindMissingFuzzySetForIndicator,
		KindUnknownFuzzySetReference,
		KindUnknownTimeframe,
	} {
		assert.True(t, r.HasKind(kind), "expected finding of kind %s, got errors: %v", kind, r.Errors)
	}
}

func TestIssueString(t *testing.T) {
	is := Issue{Kind: KindReservedFeatureID, Subject: "close", Message: "reserved"}
	assert.True(t, strings.HasPrefix(is.String(), "close: "))
}
