package risk

import "testing"

func TestAllowNotional(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 50}
	if !limits.AllowNotional(49.9) {
		t.Fatalf("expected notional under limit to pass")
	}
	if limits.AllowNotional(50.1) {
		t.Fatalf("expected notional above limit to fail")
	}
	if !(Limits{}).AllowNotional(1e9) {
		t.Fatalf("expected zero limit to disable the check")
	}
}

func TestBreachedDrawdownKillSwitch(t *testing.T) {
	limits := Limits{MaxDrawdown: 0.20}
	if limits.Breached([]float64{100, 95, 90}) {
		t.Fatalf("10%% drawdown should not breach a 20%% limit")
	}
	if !limits.Breached([]float64{100, 95, 75}) {
		t.Fatalf("25%% drawdown should breach a 20%% limit")
	}
	if (Limits{}).Breached([]float64{100, 1}) {
		t.Fatalf("zero limit should disable the kill-switch")
	}
}
