package execution

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"systrade-go/internal/backtest"
	"systrade-go/internal/marketdata"
	"systrade-go/internal/risk"
	"systrade-go/internal/series"
	"systrade-go/internal/sizing"
	"systrade-go/internal/strategy"
)

// EngineConfig holds the loop-level knobs of the order-driven simulation.
type EngineConfig struct {
	RebalanceThreshold float64     // e.g. 0.05: suppress trades below 5% of current exposure
	VolWindow          int         // trailing window for rolling volatility
	FallbackVol        float64     // used for steps where rolling vol is undefined
	RiskFreeRate       float64     // annual, for the Sharpe ratio
	Limits             risk.Limits // per-order notional gate and drawdown kill-switch
}

// Engine drives the signal-to-position-to-fill pipeline one time step at a
// time across one or many instruments.
type Engine struct {
	broker *Broker
	sizer  sizing.Sizer
	cfg    EngineConfig
	log    zerolog.Logger
}

// NewEngine wires a broker and sizer into a simulation loop.
func NewEngine(broker *Broker, sizer sizing.Sizer, cfg EngineConfig, log zerolog.Logger) *Engine {
	if cfg.VolWindow <= 1 {
		cfg.VolWindow = sizing.DefaultVolWindow
	}
	if cfg.FallbackVol <= 0 {
		cfg.FallbackVol = 0.20
	}
	return &Engine{broker: broker, sizer: sizer, cfg: cfg, log: log}
}

// Broker exposes the venue, mainly for inspection in tests and reports.
func (e *Engine) Broker() *Broker { return e.broker }

// TargetPositions sizes every signalled symbol that has both a price and a
// volatility; symbols missing either are skipped for the step.
func (e *Engine) TargetPositions(forecasts, prices, vols map[string]float64) map[string]float64 {
	targets := make(map[string]float64, len(forecasts))
	for symbol, forecast := range forecasts {
		price, okP := prices[symbol]
		vol, okV := vols[symbol]
		if !okP || !okV {
			e.log.Warn().Str("symbol", symbol).Msg("missing price or volatility, skipping")
			continue
		}
		targets[symbol] = e.sizer.Size(price, vol, forecast)
	}
	return targets
}

// Orders diffs targets against current positions and emits market orders,
// suppressing rebalances smaller than the threshold fraction of current
// exposure and rounding to whole units. A move from a flat position always
// trades (the threshold value is zero). Orders whose notional exceeds the
// configured risk limit are dropped.
func (e *Engine) Orders(targets, current, prices map[string]float64) []*Order {
	symbols := make(map[string]struct{}, len(targets)+len(current))
	for s := range targets {
		symbols[s] = struct{}{}
	}
	for s := range current {
		symbols[s] = struct{}{}
	}

	var orders []*Order
	for symbol := range symbols {
		target := targets[symbol]
		cur := current[symbol]
		tradeQty := target - cur

		price, hasPrice := prices[symbol]
		if hasPrice && price > 0 {
			tradeValue := math.Abs(tradeQty) * price
			thresholdValue := math.Abs(cur) * price * e.cfg.RebalanceThreshold
			if tradeValue < thresholdValue {
				continue
			}
		}

		tradeQty = math.Round(tradeQty)
		if tradeQty == 0 {
			continue
		}
		if hasPrice && !e.cfg.Limits.AllowNotional(math.Abs(tradeQty)*price) {
			e.log.Warn().
				Str("symbol", symbol).
				Float64("notional", math.Abs(tradeQty)*price).
				Msg("order exceeds notional limit, skipping")
			continue
		}
		orders = append(orders, NewOrder(symbol, tradeQty, Market, 0, 0))
	}
	return orders
}

// Step executes one time step: size targets, generate orders, submit and
// fill each against the step's price and volume. Rejected orders are
// absorbed; the step never fails.
func (e *Engine) Step(forecasts, prices, vols, volumes map[string]float64) []*Order {
	targets := e.TargetPositions(forecasts, prices, vols)
	orders := e.Orders(targets, e.broker.Positions(), prices)

	var executed []*Order
	for _, order := range orders {
		price, ok := prices[order.Symbol]
		if !ok {
			continue
		}
		submitted := e.broker.Submit(order.Symbol, order.Quantity, order.Kind, 0, 0)
		if e.broker.Fill(submitted, price, volumes[order.Symbol]) {
			executed = append(executed, submitted)
		}
	}
	return executed
}

// Run backtests a rule over one or more instrument histories with realistic
// order-level execution. Histories are validated up front; the loop iterates
// the intersection of all instruments' dates, executing signals and sampling
// portfolio value after each step's fills. When the configured drawdown
// limit is breached the loop halts and the result covers the steps taken.
func (e *Engine) Run(rule strategy.Strategy, histories map[string]marketdata.History) (backtest.Result, error) {
	if len(histories) == 0 {
		return backtest.Result{}, marketdata.ErrNoData
	}

	e.broker.Reset()

	all := make([]marketdata.History, 0, len(histories))
	forecastsBySymbol := make(map[string][]float64, len(histories))
	volsBySymbol := make(map[string][]float64, len(histories))
	for symbol, h := range histories {
		if err := h.Validate(); err != nil {
			return backtest.Result{}, fmt.Errorf("backtest: %w", err)
		}
		forecasts, err := rule.Forecasts(h)
		if err != nil {
			return backtest.Result{}, fmt.Errorf("backtest %s: %w", symbol, err)
		}
		forecastsBySymbol[symbol] = forecasts
		volsBySymbol[symbol] = series.RollingVol(series.PctChange(h.Closes()), e.cfg.VolWindow, true)
		all = append(all, h)
	}

	dates := marketdata.Intersect(all...)
	if len(dates) == 0 {
		return backtest.Result{}, fmt.Errorf("backtest: no common dates across %d instruments", len(histories))
	}

	e.log.Info().
		Str("rule", rule.Name()).
		Int("instruments", len(histories)).
		Int("steps", len(dates)).
		Msg("starting order-level backtest")

	equity := make([]float64, 0, len(dates))
	for _, date := range dates {
		prices := make(map[string]float64, len(histories))
		vols := make(map[string]float64, len(histories))
		volumes := make(map[string]float64, len(histories))
		forecasts := make(map[string]float64, len(histories))

		for symbol, h := range histories {
			idx := h.At(date)
			if idx < 0 {
				continue
			}
			bar := h.Bars[idx]
			prices[symbol] = bar.Close
			volumes[symbol] = bar.Volume

			vol := volsBySymbol[symbol][idx]
			if math.IsNaN(vol) || vol <= 0 {
				vol = e.cfg.FallbackVol
			}
			vols[symbol] = vol
			forecasts[symbol] = forecastsBySymbol[symbol][idx]
		}

		e.Step(forecasts, prices, vols, volumes)
		equity = append(equity, e.broker.PortfolioValue(prices))

		if e.cfg.Limits.Breached(equity) {
			e.log.Warn().
				Float64("drawdown", series.MaxDrawdown(equity)).
				Float64("limit", e.cfg.Limits.MaxDrawdown).
				Msg("drawdown limit breached, halting simulation")
			break
		}
	}

	stats := e.broker.Stats()
	initial := e.broker.cfg.InitialCapital
	result := backtest.Compute(dates[:len(equity)], equity, initial, e.cfg.RiskFreeRate, stats.TotalTrades, stats.TotalCosts)

	e.log.Info().
		Float64("total_return", result.TotalReturn).
		Float64("sharpe", result.SharpeRatio).
		Int("trades", stats.TotalTrades).
		Float64("costs", stats.TotalCosts).
		Msg("backtest complete")
	return result, nil
}
