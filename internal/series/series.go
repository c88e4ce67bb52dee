// Package series provides return, volatility, and smoothing statistics over
// aligned float64 slices. Warm-up positions where a statistic is undefined
// are NaN; consumers decide whether to zero them.
package series

import "math"

// TradingDaysPerYear is the canonical annualization constant used across the
// toolkit (Carver's 256).
const TradingDaysPerYear = 256

// PctChange returns simple one-step returns. The first element is NaN.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i] - values[i-1]) / values[i-1]
	}
	return out
}

// LogReturns returns log one-step returns. The first element is NaN.
func LogReturns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 || values[i-1] <= 0 || values[i] <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(values[i] / values[i-1])
	}
	return out
}

// Mean averages values, skipping NaNs. Returns NaN when nothing is left.
func Mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Std computes the sample standard deviation, skipping NaNs.
func Std(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sum += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n-1))
}

// RollingStd computes the trailing sample standard deviation over window
// observations. Positions with fewer than window observations, or with any
// undefined observation in the window, are NaN.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		win := values[i+1-window : i+1]
		defined := true
		for _, v := range win {
			if math.IsNaN(v) {
				defined = false
				break
			}
		}
		if !defined {
			out[i] = math.NaN()
			continue
		}
		out[i] = Std(win)
	}
	return out
}

// RollingVol computes trailing volatility of a return series, annualized by
// sqrt(TradingDaysPerYear) when annualize is set.
func RollingVol(returns []float64, window int, annualize bool) []float64 {
	out := RollingStd(returns, window)
	if annualize {
		factor := math.Sqrt(TradingDaysPerYear)
		for i := range out {
			out[i] *= factor
		}
	}
	return out
}

// EWMA smooths values with span-parameterized exponential weighting
// (alpha = 2/(span+1)). Leading NaNs are skipped until the first real value.
func EWMA(values []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(values))
	started := false
	var prev float64
	for i, v := range values {
		if math.IsNaN(v) && !started {
			out[i] = math.NaN()
			continue
		}
		if !started {
			started = true
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SharpeRatio annualizes the mean/std of daily excess returns over the
// supplied annual risk-free rate. Zero when volatility is undefined or zero.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) float64 {
	excess := make([]float64, len(dailyReturns))
	rfDaily := riskFreeRate / TradingDaysPerYear
	for i, r := range dailyReturns {
		if math.IsNaN(r) {
			excess[i] = math.NaN()
			continue
		}
		excess[i] = r - rfDaily
	}
	std := Std(dailyReturns)
	if math.IsNaN(std) || std == 0 {
		return 0
	}
	return Mean(excess) / std * math.Sqrt(TradingDaysPerYear)
}
