package strategy

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config selects a strategy by name and supplies its parameters as a flat mapping.
//
//	strategy: ma_crossover
//	parameters:
//	  short_window: 5
//	  long_window: 20
type Config struct {
	Strategy   string             `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=Registered strategy name"`
	Parameters types.ParameterSet `yaml:"parameters" json:"parameters" jsonschema:"title=Parameters,description=Flat mapping of parameter name to positive number"`
}

// ParseConfig decodes and validates a YAML strategy config.
func ParseConfig(data []byte) (Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse strategy config", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return config, nil
}

// LoadConfig reads and parses the strategy config at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to read strategy config %s", path)
	}

	return ParseConfig(data)
}

// Build creates the configured strategy.
func (c Config) Build() (Strategy, error) {
	return New(c.Strategy, c.Parameters)
}
