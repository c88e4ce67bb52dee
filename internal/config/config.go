// Package config exposes strongly typed simulation settings loaded from
// YAML with optional environment overrides. There is no ambient global
// settings object: callers pass values into component constructors.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name" default:"systrade"`
	LogLevel    string `yaml:"log_level" default:"info"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Account holds capital and rate assumptions.
type Account struct {
	InitialCapital float64 `yaml:"initial_capital" default:"100000" validate:"gt=0"`
	RiskFreeRate   float64 `yaml:"risk_free_rate" default:"0.03" validate:"gte=0,lt=1"`
}

// Costs parameterizes the venue's commission and slippage model.
type Costs struct {
	CommissionRate float64 `yaml:"commission_rate" default:"0.001" validate:"gte=0"`
	SlippageRate   float64 `yaml:"slippage_rate" default:"0.0005" validate:"gte=0"`
	MinCommission  float64 `yaml:"min_commission" default:"1.0" validate:"gte=0"`
	MarketImpact   float64 `yaml:"market_impact" default:"0.001" validate:"gte=0"`
}

// Sizing parameterizes the volatility-targeting policy.
type Sizing struct {
	VolatilityTarget    float64 `yaml:"volatility_target" default:"0.20" validate:"gt=0"`
	MaxPositionFraction float64 `yaml:"max_position_fraction" default:"0.10" validate:"gt=0,lte=1"`
	VolWindow           int     `yaml:"vol_window" default:"25" validate:"gt=1"`
}

// Execution tunes the simulation loop.
type Execution struct {
	RebalanceThreshold float64 `yaml:"rebalance_threshold" default:"0.05" validate:"gte=0"`
	Seed               int64   `yaml:"seed"`
	TradesPath         string  `yaml:"trades_path"`
}

// Risk bounds per-order notional and portfolio drawdown. Zero values
// disable the corresponding check.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade" validate:"gte=0"`
	MaxDrawdown         float64 `yaml:"max_drawdown" validate:"gte=0,lt=1"`
}

// StrategyParams groups tunable knobs for the rule implementations.
type StrategyParams struct {
	FastSpan      int     `yaml:"fast_span" default:"16"`
	SlowSpan      int     `yaml:"slow_span" default:"64"`
	ChannelPeriod int     `yaml:"channel_period" default:"20"`
	RSIPeriod     int     `yaml:"rsi_period" default:"14"`
	RSIOversold   float64 `yaml:"rsi_oversold" default:"30"`
	RSIOverbought float64 `yaml:"rsi_overbought" default:"70"`
	BollPeriod    int     `yaml:"boll_period" default:"20"`
	BollNumStd    float64 `yaml:"boll_num_std" default:"2"`
}

// Strategy specifies which rule is active along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode" default:"ewmac"`
	Params StrategyParams `yaml:"params"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Account   Account   `yaml:"account"`
	Costs     Costs     `yaml:"costs"`
	Sizing    Sizing    `yaml:"sizing"`
	Execution Execution `yaml:"execution"`
	Risk      Risk      `yaml:"risk"`
	Strategy  Strategy  `yaml:"strategy"`
}

// Default returns a config populated with defaults only.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &cfg, nil
}

// Load reads a YAML file from disk, fills defaults, and validates.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks parameter constraints up front, before a run starts.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// ApplyEnv loads a .env file when present and overrides a handful of
// commonly tuned values from the environment.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	overrides := []struct {
		key string
		set func(float64)
	}{
		{"INITIAL_CAPITAL", func(v float64) { c.Account.InitialCapital = v }},
		{"VOLATILITY_TARGET", func(v float64) { c.Sizing.VolatilityTarget = v }},
		{"MAX_POSITION_FRACTION", func(v float64) { c.Sizing.MaxPositionFraction = v }},
		{"COMMISSION_RATE", func(v float64) { c.Costs.CommissionRate = v }},
		{"SLIPPAGE_RATE", func(v float64) { c.Costs.SlippageRate = v }},
		{"REBALANCE_THRESHOLD", func(v float64) { c.Execution.RebalanceThreshold = v }},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", o.key, err)
		}
		o.set(v)
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.App.LogLevel = lvl
	}
	return c.Validate()
}
