// Package sizing converts forecasts into target exposure under a
// volatility-targeting policy with hard position caps.
package sizing

import (
	"math"

	"systrade-go/internal/series"
)

// DefaultVolWindow is the trailing window of daily returns used by the
// series variant of the sizer.
const DefaultVolWindow = 25

// Sizer holds the capital and risk parameters of the volatility-targeting
// policy. Size is a pure function of its inputs.
type Sizer struct {
	Capital             float64
	VolTarget           float64 // annualized, e.g. 0.20
	MaxPositionFraction float64 // cap on |exposure|*price as fraction of capital
}

// NewSizer builds a sizer with the given capital and risk knobs.
func NewSizer(capital, volTarget, maxPositionFraction float64) Sizer {
	return Sizer{Capital: capital, VolTarget: volTarget, MaxPositionFraction: maxPositionFraction}
}

// Size maps price, instrument volatility, and forecast to a signed target
// exposure in shares:
//
//	exposure = (volTarget/vol) * (forecast/10) * capital / price
//
// clamped so |exposure|*price never exceeds capital*maxPositionFraction.
// Non-positive price or volatility yields zero exposure by policy, not an
// error, and NaN inputs are treated the same way.
func (s Sizer) Size(price, volatility, forecast float64) float64 {
	if price <= 0 || volatility <= 0 ||
		math.IsNaN(price) || math.IsNaN(volatility) || math.IsNaN(forecast) {
		return 0
	}

	volScalar := s.VolTarget / volatility
	forecastScalar := forecast / 10.0
	notional := volScalar * forecastScalar * s.Capital
	shares := notional / price

	maxShares := s.Capital * s.MaxPositionFraction / price
	return series.Clip(shares, -maxShares, maxShares)
}

// SeriesPositions applies Size per step over aligned close and forecast
// series, using trailing volatility over window observations of simple
// returns annualized by the toolkit constant. Steps where the volatility or
// forecast is undefined yield zero exposure.
func (s Sizer) SeriesPositions(closes, forecasts []float64, window int) []float64 {
	if window <= 1 {
		window = DefaultVolWindow
	}
	returns := series.PctChange(closes)
	vol := series.RollingVol(returns, window, true)

	out := make([]float64, len(closes))
	for i := range closes {
		f := 0.0
		if i < len(forecasts) {
			f = forecasts[i]
		}
		out[i] = s.Size(closes[i], vol[i], f)
	}
	return out
}

// FixedFractional is the simple alternative sizing method: put a fixed
// fraction of capital into the position regardless of volatility.
func (s Sizer) FixedFractional(price, fraction float64) float64 {
	if price <= 0 {
		return 0
	}
	return s.Capital * fraction / price
}

// PortfolioLeverage reports total gross notional over capital for the
// supplied positions marked at the supplied prices.
func (s Sizer) PortfolioLeverage(positions, prices map[string]float64) float64 {
	if s.Capital <= 0 {
		return 0
	}
	var notional float64
	for symbol, qty := range positions {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		notional += math.Abs(qty * price)
	}
	return notional / s.Capital
}
