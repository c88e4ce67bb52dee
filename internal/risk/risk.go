// Package risk encodes guard-rails applied around the simulation loop.
package risk

import "systrade-go/internal/series"

// Limits bounds per-trade size and overall drawdown.
type Limits struct {
	MaxNotionalPerTrade float64 // 0 disables the check
	MaxDrawdown         float64 // fraction, e.g. 0.25; 0 disables the check
}

// AllowNotional reports whether a trade of the given notional is permitted.
func (l Limits) AllowNotional(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}

// Breached reports whether the equity curve has fallen past the drawdown
// kill-switch.
func (l Limits) Breached(equity []float64) bool {
	if l.MaxDrawdown <= 0 || len(equity) == 0 {
		return false
	}
	return -series.MaxDrawdown(equity) >= l.MaxDrawdown
}
