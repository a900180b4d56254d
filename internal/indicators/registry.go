package indicators

import (
	"sort"
	"strings"
)

// Meta describes a registered indicator kind. Outputs is nil for
// single-output indicators; multi-output indicators list their named outputs,
// addressable from fuzzy sets via dot notation.
type Meta struct {
	Type    string
	Outputs []string
}

// MultiOutput reports whether the kind exposes named outputs.
func (m Meta) MultiOutput() bool { return len(m.Outputs) > 0 }

var registry = map[string]Meta{
	"rsi":    {Type: "rsi"},
	"sma":    {Type: "sma"},
	"ema":    {Type: "ema"},
	"atr":    {Type: "atr"},
	"macd":   {Type: "macd", Outputs: []string{"macd", "signal", "hist"}},
	"bbands": {Type: "bbands", Outputs: []string{"upper", "middle", "lower"}},
}

// Registry resolves indicator type names. It is the validator's single source
// of truth for type existence and declared output names.
type Registry struct{}

func NewRegistry() *Registry { return &Registry{} }

// Lookup resolves a type name case-insensitively.
func (*Registry) Lookup(typ string) (Meta, bool) {
	m, ok := registry[strings.ToLower(typ)]
	return m, ok
}

// Outputs returns the declared output names for a type, nil for
// single-output kinds, and false when the type is unknown.
func (r *Registry) Outputs(typ string) ([]string, bool) {
	m, ok := r.Lookup(typ)
	if !ok {
		return nil, false
	}
	return m.Outputs, true
}

// Types lists the registered type names, sorted for stable suggestions.
func (*Registry) Types() []string {
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
