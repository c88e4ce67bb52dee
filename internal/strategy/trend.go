package strategy

import (
	"fmt"
	"math"

	"systrade-go/internal/marketdata"
	"systrade-go/internal/series"
)

// EWMAC is the exponentially weighted moving average crossover rule: the
// fast/slow EMA spread normalized by price, then scaled to the standard
// forecast range. Typical spans are 16/64, 32/128, 64/256.
type EWMAC struct {
	fastSpan int
	slowSpan int
}

// NewEWMAC builds an EWMAC rule, falling back to 16/64 for non-positive
// spans.
func NewEWMAC(fastSpan, slowSpan int) *EWMAC {
	if fastSpan <= 0 {
		fastSpan = 16
	}
	if slowSpan <= fastSpan {
		slowSpan = fastSpan * 4
	}
	return &EWMAC{fastSpan: fastSpan, slowSpan: slowSpan}
}

// Name returns the rule identifier including its spans.
func (e *EWMAC) Name() string { return fmt.Sprintf("EWMAC_%d_%d", e.fastSpan, e.slowSpan) }

// Forecasts produces the scaled EWMAC forecast series.
func (e *EWMAC) Forecasts(h marketdata.History) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	closes := h.Closes()
	fast := series.EWMA(closes, e.fastSpan)
	slow := series.EWMA(closes, e.slowSpan)

	raw := make([]float64, len(closes))
	for i := range closes {
		raw[i] = (fast[i] - slow[i]) / closes[i]
	}
	return ScaleForecasts(raw), nil
}

// MACrossover is the simple moving average crossover rule emitting a binary
// long/short bias scaled to the forecast range.
type MACrossover struct {
	fastPeriod int
	slowPeriod int
}

// NewMACrossover builds a crossover rule with 16/64 defaults.
func NewMACrossover(fastPeriod, slowPeriod int) *MACrossover {
	if fastPeriod <= 0 {
		fastPeriod = 16
	}
	if slowPeriod <= fastPeriod {
		slowPeriod = fastPeriod * 4
	}
	return &MACrossover{fastPeriod: fastPeriod, slowPeriod: slowPeriod}
}

// Name returns the rule identifier.
func (m *MACrossover) Name() string { return fmt.Sprintf("MAC_%d_%d", m.fastPeriod, m.slowPeriod) }

// Forecasts emits +10 when the fast MA is above the slow MA, -10 below, and
// zero during warm-up or when equal.
func (m *MACrossover) Forecasts(h marketdata.History) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	closes := h.Closes()
	fast := rollingMean(closes, m.fastPeriod)
	slow := rollingMean(closes, m.slowPeriod)

	out := make([]float64, len(closes))
	for i := range closes {
		switch {
		case math.IsNaN(fast[i]) || math.IsNaN(slow[i]):
			out[i] = 0
		case fast[i] > slow[i]:
			out[i] = TargetAbsForecast
		case fast[i] < slow[i]:
			out[i] = -TargetAbsForecast
		}
	}
	return out, nil
}

// MultiEWMAC equally weights several EWMAC rules with different speeds for
// diversification across trend horizons.
type MultiEWMAC struct {
	rules []*EWMAC
}

// SpanPair holds the fast and slow spans of one EWMAC variation.
type SpanPair struct {
	Fast int
	Slow int
}

// NewMultiEWMAC builds the combined rule; nil configs use the standard
// 16/64, 32/128, 64/256 ladder.
func NewMultiEWMAC(configs []SpanPair) *MultiEWMAC {
	if len(configs) == 0 {
		configs = []SpanPair{{16, 64}, {32, 128}, {64, 256}}
	}
	rules := make([]*EWMAC, len(configs))
	for i, c := range configs {
		rules[i] = NewEWMAC(c.Fast, c.Slow)
	}
	return &MultiEWMAC{rules: rules}
}

// Name returns the combined rule identifier.
func (m *MultiEWMAC) Name() string { return fmt.Sprintf("MultiEWMAC_%d", len(m.rules)) }

// Forecasts averages the member rule forecasts and re-clips to the cap.
func (m *MultiEWMAC) Forecasts(h marketdata.History) ([]float64, error) {
	combined := make([]float64, h.Len())
	for _, rule := range m.rules {
		forecasts, err := rule.Forecasts(h)
		if err != nil {
			return nil, err
		}
		for i, f := range forecasts {
			combined[i] += f
		}
	}
	for i := range combined {
		combined[i] = series.Clip(combined[i]/float64(len(m.rules)), -ForecastCap, ForecastCap)
	}
	return combined, nil
}

func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
