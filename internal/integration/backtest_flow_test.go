package integration

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"systrade-go/internal/execution"
	"systrade-go/internal/journal"
	"systrade-go/internal/marketdata"
	"systrade-go/internal/risk"
	"systrade-go/internal/sizing"
	"systrade-go/internal/strategy"
)

// trendingHistory makes a noisy uptrend long enough for EWMAC and the
// rolling volatility window to warm up.
func trendingHistory(symbol string, days int) marketdata.History {
	bars := make([]marketdata.Bar, days)
	price := 100.0
	for i := range bars {
		drift := 1.004
		if i%5 == 0 {
			drift = 0.997
		}
		price *= drift
		bars[i] = marketdata.Bar{
			Date:   time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close:  price,
			Volume: 2e6,
		}
	}
	return marketdata.NewHistory(symbol, bars)
}

func TestBacktestFlowEndToEnd(t *testing.T) {
	broker := execution.NewBroker(execution.BrokerConfig{
		InitialCapital: 100000,
		CommissionRate: 0.001,
		SlippageRate:   0.0005,
		MinCommission:  1.0,
		MarketImpact:   0.001,
		Seed:           7,
	}, zerolog.Nop())

	ledger := journal.NewLedger(64)
	broker.SetRecorder(ledger)

	sizer := sizing.NewSizer(100000, 0.20, 0.10)
	engine := execution.NewEngine(broker, sizer, execution.EngineConfig{
		RebalanceThreshold: 0.05,
		VolWindow:          25,
		Limits:             risk.Limits{MaxDrawdown: 0.90},
	}, zerolog.Nop())

	rule := strategy.Build("ewmac", strategy.Params{FastSpan: 16, SlowSpan: 64})
	histories := map[string]marketdata.History{
		"AAPL": trendingHistory("AAPL", 300),
		"MSFT": trendingHistory("MSFT", 300),
	}

	result, err := engine.Run(rule, histories)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// the generous drawdown kill-switch never trips on a costs-only drag,
	// so the full range is simulated
	if len(result.EquityCurve) != 300 {
		t.Fatalf("expected 300 equity samples, got %d", len(result.EquityCurve))
	}
	if result.TotalTrades == 0 {
		t.Fatalf("expected the uptrend to produce trades")
	}

	// the ledger mirrors the broker's trade log exactly
	trades := ledger.Snapshot()
	if len(trades) != len(broker.Trades()) {
		t.Fatalf("ledger has %d trades, broker has %d", len(trades), len(broker.Trades()))
	}
	for _, trade := range trades {
		if trade.Commission < 1.0 {
			t.Fatalf("commission floor violated: %v", trade.Commission)
		}
		if trade.OrderID == "" {
			t.Fatalf("trade missing order id")
		}
	}

	// position caps hold at every step for each instrument
	summary := broker.Summary(map[string]float64{})
	for symbol, qty := range summary.Positions {
		last := histories[symbol].Bars[histories[symbol].Len()-1].Close
		if math.Abs(qty)*last > 100000*0.10*1.25 {
			t.Fatalf("position %s of %v shares breaches the exposure cap", symbol, qty)
		}
	}

	if (risk.Limits{MaxDrawdown: 0.90}).Breached(result.Equity()) {
		t.Fatalf("unexpected kill-switch breach")
	}
}
