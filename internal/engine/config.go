package engine

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vega-lab/vega-trading/internal/market"
	"github.com/vega-lab/vega-trading/internal/position"
	"github.com/vega-lab/vega-trading/internal/types"
	"github.com/vega-lab/vega-trading/pkg/errors"
	"github.com/vega-lab/vega-trading/pkg/feed"
)

// StrategyConfig names one strategy instance and carries its raw
// configuration. Registration order in the list is signal priority order.
type StrategyConfig struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Type string `yaml:"type" json:"type" validate:"required,oneof=momentum vol_spread"`
	// Config is the strategy-specific block, validated by the strategy's own
	// config struct.
	Config map[string]any `yaml:"config" json:"config"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	// Path is a DuckDB file, or ":memory:" for ephemeral sessions.
	Path string `yaml:"path" json:"path"`
}

// Config is the full engine configuration.
type Config struct {
	Symbols    []types.Symbol   `yaml:"symbols" json:"symbols" validate:"required,min=1,dive"`
	Market     market.Config    `yaml:"market" json:"market"`
	Risk       types.RiskLimits `yaml:"risk" json:"risk" validate:"required"`
	Position   position.Config  `yaml:"position" json:"position"`
	Feed       feed.Config      `yaml:"feed" json:"feed" validate:"required"`
	Strategies []StrategyConfig `yaml:"strategies" json:"strategies" validate:"required,min=1,dive"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Audit      AuditConfig      `yaml:"audit" json:"audit"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	return ParseConfig(string(raw))
}

// ParseConfig parses and validates a YAML configuration string.
func ParseConfig(raw string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	cfg.applyDefaults()

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := cfg.Risk.Validate(); err != nil {
		return Config{}, err
	}

	for i := range cfg.Symbols {
		if err := cfg.Symbols[i].Validate(); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Audit.Path == "" {
		c.Audit.Path = ":memory:"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Risk.DecisionBudget == 0 {
		c.Risk.DecisionBudget = 5 * time.Millisecond
	}
}

// RawStrategyConfig re-serializes a strategy block so the strategy's own
// config struct can parse and validate it.
func RawStrategyConfig(block map[string]any) (string, error) {
	out, err := yaml.Marshal(block)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStrategyConfig, "failed to serialize strategy config", err)
	}

	return string(out), nil
}
