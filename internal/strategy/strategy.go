// Package strategy contains trading rule implementations that turn price
// history into continuous forecasts.
package strategy

import (
	"math"

	"systrade-go/internal/marketdata"
	"systrade-go/internal/series"
)

const (
	// ForecastCap bounds every forecast to [-ForecastCap, +ForecastCap].
	ForecastCap = 20.0
	// TargetAbsForecast is the long-run mean absolute forecast value.
	TargetAbsForecast = 10.0
)

// Strategy is the contract every trading rule satisfies: a same-length
// forecast series on the [-20, +20] scale, zero at warm-up positions where
// the rule is undefined.
type Strategy interface {
	Name() string
	Forecasts(h marketdata.History) ([]float64, error)
}

// ScaleForecasts normalizes a raw forecast series so its mean absolute value
// is TargetAbsForecast, clips to the cap, and zeroes undefined positions.
func ScaleForecasts(raw []float64) []float64 {
	var absSum float64
	var n int
	for _, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		absSum += math.Abs(v)
		n++
	}

	scalar := 1.0
	if n > 0 && absSum > 0 {
		scalar = TargetAbsForecast / (absSum / float64(n))
	}

	out := make([]float64, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			out[i] = 0
			continue
		}
		out[i] = series.Clip(v*scalar, -ForecastCap, ForecastCap)
	}
	return out
}
