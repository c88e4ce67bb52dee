package backtest

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"systrade-go/internal/marketdata"
	"systrade-go/internal/series"
	"systrade-go/internal/sizing"
	"systrade-go/internal/strategy"
)

// VectorConfig parameterizes the frictionless research engine.
type VectorConfig struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64
	RiskFreeRate   float64
	VolWindow      int
}

// VectorEngine is the fast, order-free backtest: positions are applied
// directly against price returns with a flat cost rate on position changes.
// It trades realism for speed and is meant for quick rule comparison next to
// the order-level simulation in the execution package.
type VectorEngine struct {
	cfg VectorConfig
	log zerolog.Logger
}

// NewVectorEngine builds a vectorized engine.
func NewVectorEngine(cfg VectorConfig, log zerolog.Logger) *VectorEngine {
	if cfg.VolWindow <= 1 {
		cfg.VolWindow = sizing.DefaultVolWindow
	}
	return &VectorEngine{cfg: cfg, log: log}
}

// Run backtests one rule on one instrument's history.
func (e *VectorEngine) Run(rule strategy.Strategy, h marketdata.History, sizer sizing.Sizer) (Result, error) {
	if err := h.Validate(); err != nil {
		return Result{}, fmt.Errorf("vector backtest: %w", err)
	}

	forecasts, err := rule.Forecasts(h)
	if err != nil {
		return Result{}, fmt.Errorf("vector backtest: %w", err)
	}

	closes := h.Closes()
	positions := sizer.SeriesPositions(closes, forecasts, e.cfg.VolWindow)

	costRate := e.cfg.CommissionRate + e.cfg.SlippageRate
	equity := make([]float64, len(closes))
	equity[0] = e.cfg.InitialCapital

	var totalCosts float64
	var trades int
	cumReturn := 1.0
	for i := 1; i < len(closes); i++ {
		priceReturn := (closes[i] - closes[i-1]) / closes[i-1]
		pnl := positions[i-1] * priceReturn * closes[i-1]

		change := math.Abs(positions[i] - positions[i-1])
		cost := change * closes[i] * costRate
		if change > 0 {
			trades++
			totalCosts += cost
		}

		stepReturn := (pnl - cost) / e.cfg.InitialCapital
		cumReturn *= 1 + stepReturn
		equity[i] = e.cfg.InitialCapital * cumReturn
	}

	result := Compute(h.Dates(), equity, e.cfg.InitialCapital, e.cfg.RiskFreeRate, trades, totalCosts)
	e.log.Info().
		Str("rule", rule.Name()).
		Str("symbol", h.Symbol).
		Float64("total_return", result.TotalReturn).
		Float64("sharpe", result.SharpeRatio).
		Int("trades", trades).
		Msg("vector backtest complete")
	return result, nil
}

// RunPortfolio backtests one rule across several instruments with equal
// capital per instrument, summing the per-instrument equity curves over the
// dates they share.
func (e *VectorEngine) RunPortfolio(rule strategy.Strategy, histories []marketdata.History, sizer sizing.Sizer) (Result, error) {
	if len(histories) == 0 {
		return Result{}, marketdata.ErrNoData
	}

	common := marketdata.Intersect(histories...)
	if len(common) == 0 {
		return Result{}, fmt.Errorf("portfolio backtest: no common dates across %d instruments", len(histories))
	}

	combined := make([]float64, len(common))
	var trades int
	var costs float64
	for _, h := range histories {
		res, err := e.Run(rule, h, sizer)
		if err != nil {
			return Result{}, err
		}
		trades += res.TotalTrades
		costs += res.TotalCosts
		for i, date := range common {
			idx := h.At(date)
			if idx >= 0 && idx < len(res.EquityCurve) {
				combined[i] += res.EquityCurve[idx].Value
			}
		}
	}

	initial := e.cfg.InitialCapital * float64(len(histories))
	result := Compute(common, combined, initial, e.cfg.RiskFreeRate, trades, costs)

	// drawdown spell summary helps judge whether the combined curve is
	// smoother than its parts
	stats := series.AnalyzeDrawdowns(combined)
	e.log.Info().
		Int("instruments", len(histories)).
		Float64("total_return", result.TotalReturn).
		Int("drawdown_spells", stats.Count).
		Msg("portfolio backtest complete")
	return result, nil
}
