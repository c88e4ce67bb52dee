package execution

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"systrade-go/internal/marketdata"
	"systrade-go/internal/risk"
	"systrade-go/internal/sizing"
)

// constantForecast is a stub signal source for loop tests.
type constantForecast struct{ value float64 }

func (c constantForecast) Name() string { return "Constant" }
func (c constantForecast) Forecasts(h marketdata.History) ([]float64, error) {
	out := make([]float64, h.Len())
	for i := range out {
		out[i] = c.value
	}
	return out, nil
}

func testEngine(capital float64, maxPositionFraction, rebalanceThreshold float64) *Engine {
	broker := NewBroker(BrokerConfig{
		InitialCapital: capital,
		CommissionRate: 0.001,
		SlippageRate:   0.0005,
		MinCommission:  1.0,
		MarketImpact:   0.001,
		Seed:           7,
	}, zerolog.Nop())
	sizer := sizing.NewSizer(capital, 0.20, maxPositionFraction)
	return NewEngine(broker, sizer, EngineConfig{
		RebalanceThreshold: rebalanceThreshold,
		VolWindow:          25,
		FallbackVol:        0.20,
	}, zerolog.Nop())
}

func flatHistory(symbol string, days int, price float64) marketdata.History {
	bars := make([]marketdata.Bar, days)
	for i := range bars {
		bars[i] = marketdata.Bar{
			Date:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close:  price,
			Volume: 1e6,
		}
	}
	return marketdata.NewHistory(symbol, bars)
}

func TestTargetPositionsSkipsMissingData(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	targets := engine.TargetPositions(
		map[string]float64{"AAPL": 10, "MSFT": 10},
		map[string]float64{"AAPL": 100},
		map[string]float64{"AAPL": 0.20, "MSFT": 0.20},
	)
	if _, ok := targets["MSFT"]; ok {
		t.Fatalf("symbol without price must be skipped")
	}
	if targets["AAPL"] == 0 {
		t.Fatalf("expected sized AAPL target")
	}
}

func TestOrdersRebalanceThresholdSuppression(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	current := map[string]float64{"AAPL": 100}
	prices := map[string]float64{"AAPL": 50}

	// trade of 2 shares ($100) is under the $250 threshold
	orders := engine.Orders(map[string]float64{"AAPL": 102}, current, prices)
	if len(orders) != 0 {
		t.Fatalf("expected small rebalance suppressed, got %d orders", len(orders))
	}

	// trade of 40 shares ($2000) clears the threshold
	orders = engine.Orders(map[string]float64{"AAPL": 140}, current, prices)
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}
	if orders[0].Quantity != 40 {
		t.Fatalf("expected quantity 40, got %v", orders[0].Quantity)
	}
}

func TestOrdersFromFlatAlwaysTrade(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	orders := engine.Orders(
		map[string]float64{"AAPL": 1},
		map[string]float64{},
		map[string]float64{"AAPL": 50},
	)
	// threshold value is zero with no current position, so even one share trades
	if len(orders) != 1 || orders[0].Quantity != 1 {
		t.Fatalf("expected single 1-share order, got %+v", orders)
	}
}

func TestOrdersRoundToWholeUnits(t *testing.T) {
	engine := testEngine(100000, 0.10, 0)
	orders := engine.Orders(
		map[string]float64{"AAPL": 0.4},
		map[string]float64{},
		map[string]float64{"AAPL": 50},
	)
	if len(orders) != 0 {
		t.Fatalf("sub-share trade should round away, got %+v", orders)
	}
}

func TestOrdersNotionalLimit(t *testing.T) {
	engine := testEngine(100000, 0.10, 0)
	engine.cfg.Limits = risk.Limits{MaxNotionalPerTrade: 1000}

	// 100 shares at $50 is $5000 notional, over the limit
	orders := engine.Orders(
		map[string]float64{"AAPL": 100},
		map[string]float64{},
		map[string]float64{"AAPL": 50},
	)
	if len(orders) != 0 {
		t.Fatalf("expected over-limit order dropped, got %d orders", len(orders))
	}

	// 15 shares at $50 is $750, within the limit
	orders = engine.Orders(
		map[string]float64{"AAPL": 15},
		map[string]float64{},
		map[string]float64{"AAPL": 50},
	)
	if len(orders) != 1 {
		t.Fatalf("expected in-limit order emitted, got %d orders", len(orders))
	}
}

func TestRunHaltsOnDrawdownBreach(t *testing.T) {
	engine := testEngine(100000, 1.0, 0.05)
	engine.cfg.Limits = risk.Limits{MaxDrawdown: 0.03}

	// a position is built on the flat days, then the slide erodes equity
	bars := make([]marketdata.Bar, 20)
	price := 100.0
	for i := range bars {
		if i >= 3 {
			price *= 0.98
		}
		bars[i] = marketdata.Bar{
			Date:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close:  price,
			Volume: 1e6,
		}
	}
	histories := map[string]marketdata.History{"AAPL": marketdata.NewHistory("AAPL", bars)}

	result, err := engine.Run(constantForecast{5}, histories)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(result.EquityCurve) == 0 || len(result.EquityCurve) >= 20 {
		t.Fatalf("expected halted curve shorter than 20 samples, got %d", len(result.EquityCurve))
	}
	if result.MaxDrawdown > -0.03 {
		t.Fatalf("expected drawdown past the limit, got %v", result.MaxDrawdown)
	}
}

func TestStepEndToEndScenario(t *testing.T) {
	// capital 100k, forecast 10, vol 0.20 = vol target, price 100:
	// raw exposure 1000 shares, capped at 10% of capital = 100 shares
	engine := testEngine(100000, 0.10, 0.05)
	executed := engine.Step(
		map[string]float64{"AAPL": 10},
		map[string]float64{"AAPL": 100},
		map[string]float64{"AAPL": 0.20},
		map[string]float64{"AAPL": 1e6},
	)
	if len(executed) != 1 {
		t.Fatalf("expected one executed order, got %d", len(executed))
	}
	order := executed[0]
	if order.Quantity != 100 {
		t.Fatalf("expected capped 100-share order, got %v", order.Quantity)
	}
	if engine.Broker().Position("AAPL") != 100 {
		t.Fatalf("expected position 100, got %v", engine.Broker().Position("AAPL"))
	}
	wantCash := 100000 - (100*order.AvgFillPrice + order.Commission)
	if math.Abs(engine.Broker().Cash()-wantCash) > 1e-9 {
		t.Fatalf("cash mismatch: got %v want %v", engine.Broker().Cash(), wantCash)
	}
}

func TestStepAbsorbsRejection(t *testing.T) {
	engine := testEngine(1000, 1.0, 0)
	executed := engine.Step(
		map[string]float64{"AAPL": 20},
		map[string]float64{"AAPL": 100},
		map[string]float64{"AAPL": 0.05},
		nil,
	)
	if len(executed) != 0 {
		t.Fatalf("expected rejected order to yield no executions")
	}
	if engine.Broker().Cash() != 1000 {
		t.Fatalf("rejection must leave cash intact, got %v", engine.Broker().Cash())
	}
}

func TestRunProducesEquityCurve(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	histories := map[string]marketdata.History{
		"AAPL": flatHistory("AAPL", 40, 100),
	}
	result, err := engine.Run(constantForecast{10}, histories)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(result.EquityCurve) != 40 {
		t.Fatalf("expected 40 equity samples, got %d", len(result.EquityCurve))
	}
	if result.TotalTrades == 0 {
		t.Fatalf("expected at least one trade")
	}
	// flat prices: the only losses are costs, so equity ends near capital
	if result.FinalEquity > 100000 || result.FinalEquity < 99000 {
		t.Fatalf("unexpected final equity %v", result.FinalEquity)
	}
}

func TestRunIntersectsDates(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	a := flatHistory("AAPL", 40, 100)
	b := flatHistory("MSFT", 50, 200)
	histories := map[string]marketdata.History{"AAPL": a, "MSFT": b}

	result, err := engine.Run(constantForecast{10}, histories)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	// only the 40 shared dates are simulated
	if len(result.EquityCurve) != 40 {
		t.Fatalf("expected 40 steps, got %d", len(result.EquityCurve))
	}
}

func TestRunFailsFastOnBadHistory(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	histories := map[string]marketdata.History{
		"BAD": {Symbol: "BAD"},
	}
	if _, err := engine.Run(constantForecast{10}, histories); err == nil {
		t.Fatalf("expected structural error before the loop")
	}
}

func TestRunResetsBetweenRuns(t *testing.T) {
	engine := testEngine(100000, 0.10, 0.05)
	histories := map[string]marketdata.History{"AAPL": flatHistory("AAPL", 40, 100)}

	first, err := engine.Run(constantForecast{10}, histories)
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}
	second, err := engine.Run(constantForecast{10}, histories)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	// reset + reseeded slippage make runs identical
	if first.FinalEquity != second.FinalEquity {
		t.Fatalf("expected reproducible runs: %v vs %v", first.FinalEquity, second.FinalEquity)
	}
}
