package series

import "math"

// Drawdown converts an equity curve into the fractional decline from its
// running peak (values <= 0).
func Drawdown(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - peak) / peak
	}
	return out
}

// MaxDrawdown returns the deepest drawdown (a non-positive fraction).
func MaxDrawdown(equity []float64) float64 {
	var worst float64
	for _, d := range Drawdown(equity) {
		if d < worst {
			worst = d
		}
	}
	return worst
}

// DrawdownStats aggregates drawdown spell durations measured in steps.
type DrawdownStats struct {
	Count           int
	CurrentDuration int
	AvgDuration     float64
	MaxDuration     int
}

// AnalyzeDrawdowns walks the equity curve and summarizes each spell below
// the running peak.
func AnalyzeDrawdowns(equity []float64) DrawdownStats {
	dd := Drawdown(equity)
	var stats DrawdownStats
	var durations []int
	run := 0
	for _, d := range dd {
		if d < 0 {
			run++
			continue
		}
		if run > 0 {
			durations = append(durations, run)
			run = 0
		}
	}
	stats.CurrentDuration = run
	if run > 0 {
		durations = append(durations, run)
	}
	stats.Count = len(durations)
	var sum int
	for _, d := range durations {
		sum += d
		if d > stats.MaxDuration {
			stats.MaxDuration = d
		}
	}
	if len(durations) > 0 {
		stats.AvgDuration = float64(sum) / float64(len(durations))
	}
	return stats
}

// CalmarRatio divides annualized return by the magnitude of max drawdown.
func CalmarRatio(annualizedReturn float64, equity []float64) float64 {
	maxDD := math.Abs(MaxDrawdown(equity))
	if maxDD == 0 {
		return 0
	}
	return annualizedReturn / maxDD
}

// UlcerIndex is the root mean square of the drawdown series, a measure of
// downside pain over time.
func UlcerIndex(equity []float64) float64 {
	dd := Drawdown(equity)
	if len(dd) == 0 {
		return 0
	}
	var sum float64
	for _, d := range dd {
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(dd)))
}
