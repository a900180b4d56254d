package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StrategySpec is the in-memory form of a declarative strategy document:
// indicators feed fuzzy membership sets, and nn_inputs select which fuzzy
// sets (over which timeframes) become neural-network input features.
//
// The spec is parsed once and never mutated. Declaration order of nn_inputs
// and of each fuzzy set's memberships is semantically significant: it defines
// the canonical feature order, so decoding preserves document order instead
// of going through Go maps.
type StrategySpec struct {
	Name       string
	Symbols    []string
	Timeframes []string // training timeframes, declared order

	Indicators []IndicatorDef
	FuzzySets  []FuzzySetDef
	NNInputs   []NNInputSelector
}

// IndicatorDef declares one indicator instance. ID doubles as the feature_id
// prefix referenced by fuzzy sets; Params are passed through to the indicator
// evaluator untouched.
type IndicatorDef struct {
	ID     string
	Type   string
	Params map[string]interface{}
}

// FuzzySetDef maps one indicator output onto named linguistic categories.
// IndicatorRef is either a bare indicator id (single-output indicator) or
// "indicator_id.output_name" for one output of a multi-output indicator.
type FuzzySetDef struct {
	ID           string
	IndicatorRef string
	Memberships  []MembershipDef // document order
}

// MembershipDef is one membership function descriptor.
type MembershipDef struct {
	Name       string
	Kind       string
	Parameters []float64
}

// NNInputSelector picks a fuzzy set and the timeframes it contributes
// features on. All=true means "expand to the strategy's training timeframes
// in their declared order".
type NNInputSelector struct {
	FuzzySetID string
	All        bool
	Timeframes []string
}

// SplitIndicatorRef splits an indicator_ref on the first dot only.
// "bbands_20_2.upper" -> ("bbands_20_2", "upper"); "rsi_14" -> ("rsi_14", "").
func SplitIndicatorRef(ref string) (id, output string) {
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

// Indicator returns the indicator declared with the given id.
func (s *StrategySpec) Indicator(id string) (*IndicatorDef, bool) {
	for i := range s.Indicators {
		if s.Indicators[i].ID == id {
			return &s.Indicators[i], true
		}
	}
	return nil, false
}

// FuzzySet returns the fuzzy set declared with the given id.
func (s *StrategySpec) FuzzySet(id string) (*FuzzySetDef, bool) {
	for i := range s.FuzzySets {
		if s.FuzzySets[i].ID == id {
			return &s.FuzzySets[i], true
		}
	}
	return nil, false
}

// SelectorTimeframes returns the effective timeframe list for a selector:
// the training timeframes (declared order) when All is set, otherwise the
// selector's own list in its given order. No sorting, no deduplication.
func (s *StrategySpec) SelectorTimeframes(sel NNInputSelector) []string {
	if sel.All {
		return s.Timeframes
	}
	return sel.Timeframes
}

// --- YAML decoding ---
//
// The wire format uses mappings for indicators/fuzzy_sets; yaml.v3 exposes
// mapping entries in document order through yaml.Node, which is what keeps
// membership declaration order intact across processes.

type rawIndicator struct {
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type rawMembership struct {
	Kind       string    `yaml:"kind"`
	Parameters []float64 `yaml:"parameters"`
}

func (s *StrategySpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("strategy: expected mapping at top level, got %s", nodeKind(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		var err error
		switch key {
		case "name":
			err = val.Decode(&s.Name)
		case "symbols":
			err = val.Decode(&s.Symbols)
		case "training_timeframes", "timeframes":
			err = val.Decode(&s.Timeframes)
		case "indicators":
			s.Indicators, err = decodeIndicators(val)
		case "fuzzy_sets":
			s.FuzzySets, err = decodeFuzzySets(val)
		case "nn_inputs":
			s.NNInputs, err = decodeNNInputs(val)
		}
		if err != nil {
			return fmt.Errorf("strategy: %s: %w", key, err)
		}
	}
	return nil
}

func decodeIndicators(node *yaml.Node) ([]IndicatorDef, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping, got %s", nodeKind(node))
	}
	out := make([]IndicatorDef, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var raw rawIndicator
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("indicator %q: %w", node.Content[i].Value, err)
		}
		out = append(out, IndicatorDef{
			ID:     node.Content[i].Value,
			Type:   raw.Type,
			Params: raw.Params,
		})
	}
	return out, nil
}

func decodeFuzzySets(node *yaml.Node) ([]FuzzySetDef, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping, got %s", nodeKind(node))
	}
	out := make([]FuzzySetDef, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fs := FuzzySetDef{ID: node.Content[i].Value}
		body := node.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("fuzzy set %q: expected mapping, got %s", fs.ID, nodeKind(body))
		}
		for j := 0; j+1 < len(body.Content); j += 2 {
			key := body.Content[j].Value
			val := body.Content[j+1]
			switch key {
			case "indicator", "indicator_ref":
				if err := val.Decode(&fs.IndicatorRef); err != nil {
					return nil, fmt.Errorf("fuzzy set %q: indicator: %w", fs.ID, err)
				}
			case "memberships":
				if val.Kind != yaml.MappingNode {
					return nil, fmt.Errorf("fuzzy set %q: memberships: expected mapping, got %s", fs.ID, nodeKind(val))
				}
				for k := 0; k+1 < len(val.Content); k += 2 {
					var raw rawMembership
					if err := val.Content[k+1].Decode(&raw); err != nil {
						return nil, fmt.Errorf("fuzzy set %q: membership %q: %w", fs.ID, val.Content[k].Value, err)
					}
					fs.Memberships = append(fs.Memberships, MembershipDef{
						Name:       val.Content[k].Value,
						Kind:       raw.Kind,
						Parameters: raw.Parameters,
					})
				}
			}
		}
		out = append(out, fs)
	}
	return out, nil
}

func decodeNNInputs(node *yaml.Node) ([]NNInputSelector, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected sequence, got %s", nodeKind(node))
	}
	out := make([]NNInputSelector, 0, len(node.Content))
	for idx, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("nn_inputs[%d]: expected mapping, got %s", idx, nodeKind(item))
		}
		var sel NNInputSelector
		for j := 0; j+1 < len(item.Content); j += 2 {
			key := item.Content[j].Value
			val := item.Content[j+1]
			switch key {
			case "fuzzy_set", "fuzzy_set_id":
				if err := val.Decode(&sel.FuzzySetID); err != nil {
					return nil, fmt.Errorf("nn_inputs[%d]: fuzzy_set: %w", idx, err)
				}
			case "timeframes":
				// either the literal token "all" or an explicit ordered list
				if val.Kind == yaml.ScalarNode {
					if val.Value != "all" {
						return nil, fmt.Errorf("nn_inputs[%d]: timeframes: expected 'all' or a list, got %q", idx, val.Value)
					}
					sel.All = true
				} else {
					if err := val.Decode(&sel.Timeframes); err != nil {
						return nil, fmt.Errorf("nn_inputs[%d]: timeframes: %w", idx, err)
					}
				}
			}
		}
		out = append(out, sel)
	}
	return out, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "document"
	}
}
