// Package backtest computes performance metrics over equity curves and
// holds the vectorized research engine.
package backtest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"systrade-go/internal/series"
)

// Point is one equity-curve sample.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result aggregates a simulation run: the equity curve and the performance
// statistics derived from it.
type Result struct {
	EquityCurve []Point

	TotalReturn          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	FinalEquity          float64
	TotalTrades          int
	TotalCosts           float64
	Start                time.Time
	End                  time.Time
}

// Compute derives the performance statistics from an equity curve sampled on
// dates. riskFreeRate is annual; trades and costs come from the venue.
func Compute(dates []time.Time, equity []float64, initialCapital, riskFreeRate float64, trades int, costs float64) Result {
	result := Result{TotalTrades: trades, TotalCosts: costs}
	if len(equity) == 0 || len(dates) != len(equity) {
		return result
	}

	result.EquityCurve = make([]Point, len(equity))
	for i := range equity {
		result.EquityCurve[i] = Point{Date: dates[i], Value: equity[i]}
	}
	result.Start = dates[0]
	result.End = dates[len(dates)-1]
	result.FinalEquity = equity[len(equity)-1]
	if initialCapital > 0 {
		result.TotalReturn = result.FinalEquity/initialCapital - 1
	}

	years := float64(len(equity)) / series.TradingDaysPerYear
	if years > 0 && 1+result.TotalReturn > 0 {
		result.AnnualizedReturn = math.Pow(1+result.TotalReturn, 1/years) - 1
	}

	returns := series.PctChange(equity)
	std := series.Std(returns)
	if !math.IsNaN(std) {
		result.AnnualizedVolatility = std * math.Sqrt(series.TradingDaysPerYear)
	}
	result.SharpeRatio = series.SharpeRatio(returns, riskFreeRate)
	result.MaxDrawdown = series.MaxDrawdown(equity)
	return result
}

// Equity returns the raw equity values of the curve.
func (r Result) Equity() []float64 {
	out := make([]float64, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		out[i] = p.Value
	}
	return out
}

// Summary renders a plain-text performance report.
func (r Result) Summary() string {
	var sb strings.Builder
	line := strings.Repeat("=", 60)
	sb.WriteString(line + "\n")
	sb.WriteString("BACKTEST PERFORMANCE SUMMARY\n")
	sb.WriteString(line + "\n")
	fmt.Fprintf(&sb, "Period:                %s to %s\n",
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Final Equity:          $%.2f\n", r.FinalEquity)
	fmt.Fprintf(&sb, "Total Return:          %.2f%%\n", r.TotalReturn*100)
	fmt.Fprintf(&sb, "Annualized Return:     %.2f%%\n", r.AnnualizedReturn*100)
	fmt.Fprintf(&sb, "Annualized Volatility: %.2f%%\n", r.AnnualizedVolatility*100)
	fmt.Fprintf(&sb, "Sharpe Ratio:          %.2f\n", r.SharpeRatio)
	fmt.Fprintf(&sb, "Maximum Drawdown:      %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(&sb, "Total Trades:          %d\n", r.TotalTrades)
	fmt.Fprintf(&sb, "Total Costs:           $%.2f\n", r.TotalCosts)
	sb.WriteString(line + "\n")
	return sb.String()
}
