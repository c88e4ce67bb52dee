package strategy

import (
	"fmt"
	"math"

	"systrade-go/internal/marketdata"
	"systrade-go/internal/series"
)

// BollingerBands is a mean-reversion rule: fade the price's position inside
// the bands, so a stretch above the upper band is a short forecast and a
// stretch below the lower band a long one.
type BollingerBands struct {
	period int
	numStd float64
}

// NewBollingerBands builds the rule with 20-period / 2-sigma defaults.
func NewBollingerBands(period int, numStd float64) *BollingerBands {
	if period <= 1 {
		period = 20
	}
	if numStd <= 0 {
		numStd = 2
	}
	return &BollingerBands{period: period, numStd: numStd}
}

// Name returns the rule identifier.
func (b *BollingerBands) Name() string { return fmt.Sprintf("Bollinger_%d", b.period) }

// Forecasts emits -10..+10 proportional to the inverted band position.
func (b *BollingerBands) Forecasts(h marketdata.History) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	closes := h.Closes()
	middle := rollingMean(closes, b.period)
	std := series.RollingStd(closes, b.period)

	out := make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			out[i] = 0
			continue
		}
		bandPos := (closes[i] - middle[i]) / (std[i] * b.numStd)
		out[i] = -series.Clip(bandPos, -1, 1) * TargetAbsForecast
	}
	return out, nil
}

// RSIMeanReversion fades overbought/oversold readings of a simple
// rolling-mean RSI: long below the oversold level, short above overbought,
// flat in between.
type RSIMeanReversion struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIMeanReversion builds the rule with the classic 14 / 30 / 70 setup.
func NewRSIMeanReversion(period int, oversold, overbought float64) *RSIMeanReversion {
	if period <= 1 {
		period = 14
	}
	if oversold <= 0 || oversold >= 100 {
		oversold = 30
	}
	if overbought <= oversold || overbought >= 100 {
		overbought = 70
	}
	return &RSIMeanReversion{period: period, oversold: oversold, overbought: overbought}
}

// Name returns the rule identifier.
func (r *RSIMeanReversion) Name() string { return fmt.Sprintf("RSI_%d", r.period) }

// Forecasts converts RSI extremes into contrarian forecasts.
func (r *RSIMeanReversion) Forecasts(h marketdata.History) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	rsi := r.rsi(h.Closes())

	out := make([]float64, len(rsi))
	for i, v := range rsi {
		switch {
		case math.IsNaN(v):
			out[i] = 0
		case v < r.oversold:
			out[i] = series.Clip((r.oversold-v)/r.oversold, -1, 1) * TargetAbsForecast
		case v > r.overbought:
			out[i] = series.Clip((r.overbought-v)/(100-r.overbought), -1, 1) * TargetAbsForecast
		}
	}
	return out, nil
}

func (r *RSIMeanReversion) rsi(closes []float64) []float64 {
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			gains[i], losses[i] = math.NaN(), math.NaN()
			continue
		}
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGains := rollingMeanSkipFirst(gains, r.period)
	avgLosses := rollingMeanSkipFirst(losses, r.period)

	out := make([]float64, len(closes))
	for i := range out {
		switch {
		case math.IsNaN(avgGains[i]) || math.IsNaN(avgLosses[i]):
			out[i] = math.NaN()
		case avgLosses[i] == 0:
			out[i] = 100
		default:
			rs := avgGains[i] / avgLosses[i]
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// rollingMeanSkipFirst averages over window but treats the leading NaN diff
// as missing, so the first defined value appears at index window.
func rollingMeanSkipFirst(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for j := i + 1 - window; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}
