package strategy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"StratForge/internal/domain/models"
	applogger "StratForge/pkg/logger"
)

// ErrInvalidStrategy is returned when a strategy document fails validation;
// the accompanying Report carries the full batch of findings.
var ErrInvalidStrategy = errors.New("strategy: validation failed")

// Loader reads, decodes and validates strategy documents. Construct one per
// caller; there is no package-level instance.
type Loader struct {
	validator *Validator
	log       *applogger.Logger
}

func NewLoader(v *Validator, log *applogger.Logger) *Loader {
	return &Loader{validator: v, log: log}
}

// Load reads a strategy YAML file. On validation errors it returns
// ErrInvalidStrategy together with the report; a spec with outstanding
// errors is never returned to the caller.
func (l *Loader) Load(path string) (*models.StrategySpec, *Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read strategy: %w", err)
	}
	return l.Parse(b)
}

// Parse decodes and validates strategy YAML bytes.
func (l *Loader) Parse(b []byte) (*models.StrategySpec, *Report, error) {
	var spec models.StrategySpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, nil, fmt.Errorf("parse strategy: %w", err)
	}

	report := l.validator.Validate(&spec)
	if l.log != nil {
		for _, w := range report.Warnings {
			l.log.Warn("strategy validation warning",
				applogger.String("strategy", spec.Name),
				applogger.String("kind", string(w.Kind)),
				applogger.String("detail", w.String()),
			)
		}
	}
	if !report.Valid() {
		return nil, report, ErrInvalidStrategy
	}
	return &spec, report, nil
}
