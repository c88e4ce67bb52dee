package strategy

import (
	"fmt"
	"math"

	"systrade-go/internal/marketdata"
)

// DonchianBreakout trades channel breakouts: full-strength forecasts at the
// channel edges and a graded bias inside the middle of the channel.
type DonchianBreakout struct {
	entryPeriod int
}

// NewDonchianBreakout builds the rule with a 20-day channel default.
func NewDonchianBreakout(entryPeriod int) *DonchianBreakout {
	if entryPeriod <= 1 {
		entryPeriod = 20
	}
	return &DonchianBreakout{entryPeriod: entryPeriod}
}

// Name returns the rule identifier.
func (d *DonchianBreakout) Name() string { return fmt.Sprintf("Donchian_%d", d.entryPeriod) }

// Forecasts emits +10 above the upper channel, -10 below the lower channel,
// and a linear bias while the close sits in the middle band of the channel.
func (d *DonchianBreakout) Forecasts(h marketdata.History) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	closes := h.Closes()
	highs := make([]float64, h.Len())
	lows := make([]float64, h.Len())
	for i, b := range h.Bars {
		// fall back to closes for close-only data
		highs[i], lows[i] = b.High, b.Low
		if b.High == 0 || b.Low == 0 {
			highs[i], lows[i] = b.Close, b.Close
		}
	}

	upper := rollingMax(highs, d.entryPeriod)
	lower := rollingMin(lows, d.entryPeriod)

	out := make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(upper[i]) || math.IsNaN(lower[i]) {
			out[i] = 0
			continue
		}
		width := upper[i] - lower[i]
		switch {
		case closes[i] >= upper[i]:
			out[i] = TargetAbsForecast
		case closes[i] <= lower[i]:
			out[i] = -TargetAbsForecast
		case width > 0:
			pos := (closes[i] - lower[i]) / width
			if pos > 0.3 && pos < 0.7 {
				out[i] = (pos - 0.5) * 2 * TargetAbsForecast
			}
		}
	}
	return out, nil
}

func rollingMax(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		m := math.Inf(-1)
		for j := i + 1 - window; j <= i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

func rollingMin(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		m := math.Inf(1)
		for j := i + 1 - window; j <= i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}
