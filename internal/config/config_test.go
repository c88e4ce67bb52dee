package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "systrade-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Account.InitialCapital != 250000 {
		t.Fatalf("unexpected initial capital: %.2f", cfg.Account.InitialCapital)
	}
	if cfg.Costs.MinCommission != 2.5 {
		t.Fatalf("unexpected min commission: %.2f", cfg.Costs.MinCommission)
	}
	if cfg.Sizing.VolatilityTarget != 0.25 {
		t.Fatalf("unexpected volatility target: %.2f", cfg.Sizing.VolatilityTarget)
	}
	if cfg.Execution.Seed != 42 {
		t.Fatalf("unexpected seed: %d", cfg.Execution.Seed)
	}
	if cfg.Risk.MaxNotionalPerTrade != 20000 {
		t.Fatalf("unexpected notional limit: %.2f", cfg.Risk.MaxNotionalPerTrade)
	}
	if cfg.Risk.MaxDrawdown != 0.3 {
		t.Fatalf("unexpected drawdown limit: %.2f", cfg.Risk.MaxDrawdown)
	}
	if cfg.Strategy.Mode != "donchian" {
		t.Fatalf("unexpected strategy mode: %s", cfg.Strategy.Mode)
	}
	if cfg.Strategy.Params.ChannelPeriod != 40 {
		t.Fatalf("unexpected channel period: %d", cfg.Strategy.Params.ChannelPeriod)
	}
	// values omitted from the file pick up defaults
	if cfg.Strategy.Params.FastSpan != 16 {
		t.Fatalf("expected default fast span 16, got %d", cfg.Strategy.Params.FastSpan)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Account.InitialCapital != 100000 {
		t.Fatalf("unexpected default capital: %.2f", cfg.Account.InitialCapital)
	}
	if cfg.Sizing.VolWindow != 25 {
		t.Fatalf("unexpected default vol window: %d", cfg.Sizing.VolWindow)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	cfg.Sizing.MaxPositionFraction = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for max position fraction > 1")
	}

	cfg, err = Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	cfg.Risk.MaxDrawdown = 1.0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for max drawdown >= 1")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	t.Setenv("INITIAL_CAPITAL", "50000")
	t.Setenv("REBALANCE_THRESHOLD", "0.02")
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv returned error: %v", err)
	}
	if cfg.Account.InitialCapital != 50000 {
		t.Fatalf("expected env capital override, got %.2f", cfg.Account.InitialCapital)
	}
	if cfg.Execution.RebalanceThreshold != 0.02 {
		t.Fatalf("expected env threshold override, got %.4f", cfg.Execution.RebalanceThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
