package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/risk"
	"github.com/rxtech-lab/argo-quant/internal/version"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RiskConfig enables the risk manager for a run.
type RiskConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Clip positions to the risk manager limit and record risk events,default=false"`
	risk.Config `yaml:",inline"`
}

type BacktestEngineV1Config struct {
	Version          string                     `yaml:"version" json:"version,omitempty" jsonschema:"title=Version,description=Engine version the config was written for"`
	Symbol           string                     `yaml:"symbol" json:"symbol,omitempty" jsonschema:"title=Symbol,description=Symbol to load from the data source"`
	InitialCapital   float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest,minimum=0,default=100000"`
	MaxPositionSize  float64                    `yaml:"max_position_size" json:"max_position_size" validate:"gt=0" jsonschema:"title=Max Position Size,description=Largest absolute exposure as a fraction of equity,minimum=0,default=1"`
	Broker           commission_fee.Broker      `yaml:"broker" json:"broker" validate:"oneof=zero_commission fixed_rate interactive_broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	CommissionRate   float64                    `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Fraction of traded notional charged by the fixed_rate broker,minimum=0,default=0"`
	DecimalPrecision int                        `yaml:"decimal_precision" json:"decimal_precision" validate:"gte=0,lte=8" jsonschema:"title=Decimal Precision,description=Decimal places of trade quantities,minimum=0,maximum=8,default=0"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Risk             RiskConfig                 `yaml:"risk" json:"risk" validate:"-" jsonschema:"title=Risk,description=Risk manager thresholds"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Missing keys keep the values of EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type riskConfig struct {
		Enabled          bool     `yaml:"enabled"`
		MaxPositionRatio *float64 `yaml:"max_position_ratio"`
		MaxDrawdown      *float64 `yaml:"max_drawdown"`
		StopLossRatio    *float64 `yaml:"stop_loss_ratio"`
		TakeProfitRatio  *float64 `yaml:"take_profit_ratio"`
	}

	type config struct {
		Version          string                `yaml:"version"`
		Symbol           string                `yaml:"symbol"`
		InitialCapital   *float64              `yaml:"initial_capital"`
		MaxPositionSize  *float64              `yaml:"max_position_size"`
		Broker           commission_fee.Broker `yaml:"broker"`
		CommissionRate   float64               `yaml:"commission_rate"`
		DecimalPrecision *int                  `yaml:"decimal_precision"`
		StartTime        *time.Time            `yaml:"start_time"`
		EndTime          *time.Time            `yaml:"end_time"`
		Risk             *riskConfig           `yaml:"risk"`
	}

	var raw config
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.Version = raw.Version
	c.Symbol = raw.Symbol
	c.CommissionRate = raw.CommissionRate

	if raw.InitialCapital != nil {
		c.InitialCapital = *raw.InitialCapital
	}

	if raw.MaxPositionSize != nil {
		c.MaxPositionSize = *raw.MaxPositionSize
	}

	if raw.Broker != "" {
		c.Broker = raw.Broker
	}

	if raw.DecimalPrecision != nil {
		c.DecimalPrecision = *raw.DecimalPrecision
	}

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	if raw.Risk != nil {
		c.Risk.Enabled = raw.Risk.Enabled

		setIfPresent(&c.Risk.MaxPositionRatio, raw.Risk.MaxPositionRatio)
		setIfPresent(&c.Risk.MaxDrawdown, raw.Risk.MaxDrawdown)
		setIfPresent(&c.Risk.StopLossRatio, raw.Risk.StopLossRatio)
		setIfPresent(&c.Risk.TakeProfitRatio, raw.Risk.TakeProfitRatio)
	}

	return nil
}

func setIfPresent(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// ParseConfig decodes a yaml engine config and validates it.
func ParseConfig(content string) (BacktestEngineV1Config, error) {
	config := EmptyConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks field ranges, the time window, the risk block when enabled
// and the config version against the engine version.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid engine config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time is before start_time")
	}

	if c.Risk.Enabled {
		if _, err := risk.NewManager(c.Risk.Config); err != nil {
			return err
		}
	}

	if c.Version != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.Version); err != nil {
			return errors.Wrap(errors.ErrCodeVersionMismatch, "engine config version is not compatible", err)
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type:    "string",
					Enum:    commission_fee.AllBrokers,
					Default: commission_fee.BrokerZero,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   100000,
		MaxPositionSize:  1,
		Broker:           commission_fee.BrokerZero,
		CommissionRate:   0,
		DecimalPrecision: 0,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Risk: RiskConfig{
			Enabled: false,
			Config:  risk.DefaultConfig(),
		},
	}
}
