package strategy

import (
	"fmt"
	"regexp"
	"strings"

	"StratForge/internal/domain/models"
	"StratForge/pkg/util"
)

// featureIDPattern: starts with a letter; letters, digits, underscore, dash.
var featureIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// reservedIDs are raw market-data column names a feature id may not shadow.
// Exact match only (case-insensitive): "close" is rejected, "close_sma" is
// fine.
var reservedIDs = []string{"open", "high", "low", "close", "volume"}

// IndicatorCatalog is the validator's view of the indicator registry.
// Outputs returns nil for single-output types and false for unknown types.
type IndicatorCatalog interface {
	Outputs(typ string) ([]string, bool)
	Types() []string
}

// MembershipCatalog is the validator's view of the fuzzy membership registry.
type MembershipCatalog interface {
	Arity(kind string) (int, bool)
	Kinds() []string
}

// Validator checks a decoded strategy spec for internal consistency before
// resolution is attempted. It is an explicit object constructed by the
// caller; two validators never share state.
//
// This is the single authoritative layer for feature-id format and
// reserved-word rules; the YAML decode layer preserves structure and order
// but performs no semantic checks.
type Validator struct {
	indicators  IndicatorCatalog
	memberships MembershipCatalog
}

func NewValidator(ic IndicatorCatalog, mc MembershipCatalog) *Validator {
	return &Validator{indicators: ic, memberships: mc}
}

// Validate runs every check and accumulates all findings. Checks are
// independent: a failure in one never suppresses another.
func (v *Validator) Validate(spec *models.StrategySpec) *Report {
	r := &Report{}
	v.checkIndicatorIDs(spec, r)
	v.checkIndicatorTypes(spec, r)
	v.checkFuzzySets(spec, r)
	v.checkCrossReferences(spec, r)
	v.checkNNInputs(spec, r)
	return r
}

func (v *Validator) checkIndicatorIDs(spec *models.StrategySpec, r *Report) {
	byID := make(map[string][]int)
	for i, ind := range spec.Indicators {
		id := ind.ID
		if strings.TrimSpace(id) == "" {
			r.errorf(KindMissingFeatureID, fmt.Sprintf("indicators[%d]", i),
				"indicator at position %d (type %q) has an empty feature id", i, ind.Type)
			continue
		}
		if !featureIDPattern.MatchString(id) {
			r.errorf(KindInvalidFeatureIDFormat, id,
				"feature id %q must start with a letter and contain only letters, digits, '_' or '-'", id)
		}
		for _, res := range reservedIDs {
			if strings.EqualFold(id, res) {
				r.errorf(KindReservedFeatureID, id,
					"feature id %q is a reserved market-data column name", id)
			}
		}
		byID[id] = append(byID[id], i)
	}
	for id, positions := range byID {
		if len(positions) > 1 {
			r.errorf(KindDuplicateFeatureID, id,
				"feature id %q declared %d times at positions %v", id, len(positions), positions)
		}
	}
}

func (v *Validator) checkIndicatorTypes(spec *models.StrategySpec, r *Report) {
	for _, ind := range spec.Indicators {
		if ind.Type == "" {
			r.errorf(KindUnknownIndicatorType, ind.ID, "indicator %q has no type", ind.ID)
			continue
		}
		if _, ok := v.indicators.Outputs(ind.Type); !ok {
			msg := fmt.Sprintf("indicator %q has unknown type %q", ind.ID, ind.Type)
			if hint := util.Closest(strings.ToLower(ind.Type), v.indicators.Types()); hint != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			r.errorf(KindUnknownIndicatorType, ind.ID, "%s", msg)
		}
	}
}

func (v *Validator) checkFuzzySets(spec *models.StrategySpec, r *Report) {
	for _, fs := range spec.FuzzySets {
		for _, m := range fs.Memberships {
			want, ok := v.memberships.Arity(m.Kind)
			if !ok {
				r.errorf(KindUnknownMembershipKind, fs.ID,
					"membership %q has unknown kind %q (known kinds: %s)",
					m.Name, m.Kind, strings.Join(v.memberships.Kinds(), ", "))
				continue
			}
			if len(m.Parameters) != want {
				r.errorf(KindInvalidMembershipArity, fs.ID,
					"membership %q of kind %q expects %d parameters, got %d",
					m.Name, m.Kind, want, len(m.Parameters))
			}
		}
	}
}

// checkCrossReferences validates the indicator <-> fuzzy-set graph in both
// directions, including dot notation against declared output names.
func (v *Validator) checkCrossReferences(spec *models.StrategySpec, r *Report) {
	referenced := make(map[string]bool)
	for _, fs := range spec.FuzzySets {
		indID, output := models.SplitIndicatorRef(fs.IndicatorRef)
		ind, ok := spec.Indicator(indID)
		if !ok {
			r.errorf(KindUnknownIndicatorReference, fs.ID,
				"fuzzy set %q references unknown indicator %q", fs.ID, indID)
			continue
		}
		referenced[indID] = true
		if output == "" {
			continue
		}
		outputs, known := v.indicators.Outputs(ind.Type)
		if !known {
			// the unknown type is already reported by checkIndicatorTypes
			continue
		}
		if len(outputs) == 0 {
			r.errorf(KindDotOnSingleOutput, fs.ID,
				"fuzzy set %q uses dot notation %q but indicator %q (type %q) has a single output",
				fs.ID, fs.IndicatorRef, indID, ind.Type)
			continue
		}
		if !contains(outputs, output) {
			r.errorf(KindInvalidOutputName, fs.ID,
				"fuzzy set %q references output %q of indicator %q; valid outputs: %s",
				fs.ID, output, indID, strings.Join(outputs, ", "))
		}
	}

	// every indicator must feed at least one fuzzy set, or resolution would
	// silently produce zero features for it
	for _, ind := range spec.Indicators {
		if ind.ID == "" {
			continue
		}
		if !referenced[ind.ID] {
			r.errorf(KindMissingFuzzySetForIndicator, ind.ID,
				"indicator %q is not referenced by any fuzzy set", ind.ID)
		}
	}

	// a fuzzy set unused by nn_inputs may be intentional (reserved for a
	// later experiment); the warning fires per fuzzy set, even when a sibling
	// set on the same indicator is selected
	selected := make(map[string]bool)
	for _, sel := range spec.NNInputs {
		selected[sel.FuzzySetID] = true
	}
	for _, fs := range spec.FuzzySets {
		if !selected[fs.ID] {
			r.warnf(KindOrphanedFuzzySet, fs.ID,
				"fuzzy set %q is not selected by any nn_input", fs.ID)
		}
	}
}

func (v *Validator) checkNNInputs(spec *models.StrategySpec, r *Report) {
	declared := make(map[string]bool, len(spec.Timeframes))
	for _, tf := range spec.Timeframes {
		declared[tf] = true
	}

	seenPair := make(map[string][]int)
	for i, sel := range spec.NNInputs {
		subject := fmt.Sprintf("nn_inputs[%d]", i)
		if _, ok := spec.FuzzySet(sel.FuzzySetID); !ok {
			r.errorf(KindUnknownFuzzySetReference, subject,
				"nn_input %d selects unknown fuzzy set %q", i, sel.FuzzySetID)
		}
		for _, tf := range spec.SelectorTimeframes(sel) {
			if !declared[tf] {
				r.errorf(KindUnknownTimeframe, subject,
					"nn_input %d names timeframe %q, not one of the training timeframes %v",
					i, tf, spec.Timeframes)
			}
			// a repeated timeframe x fuzzy-set pair would collide on
			// feature ids during resolution
			pair := tf + "\x00" + sel.FuzzySetID
			seenPair[pair] = append(seenPair[pair], i)
		}
	}
	for pair, positions := range seenPair {
		if len(positions) > 1 {
			parts := strings.SplitN(pair, "\x00", 2)
			r.errorf(KindDuplicateFeatureID, parts[1],
				"fuzzy set %q on timeframe %q is selected by multiple nn_inputs at positions %v; the resolved feature ids would collide",
				parts[1], parts[0], positions)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
