package execution

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"systrade-go/internal/metrics"
)

// Trade is an immutable log entry appended on every successful fill.
type Trade struct {
	Time       time.Time `json:"time"`
	Symbol     string    `json:"symbol"`
	Quantity   float64   `json:"quantity"` // signed fill quantity
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	Slippage   float64   `json:"slippage"` // cost in currency
	OrderID    string    `json:"order_id"`
}

// TradeRecorder captures trades for later inspection (see journal package).
type TradeRecorder interface {
	Record(Trade)
}

// BrokerConfig carries the cost model and starting capital of a simulated
// venue.
type BrokerConfig struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64
	MinCommission  float64 // per-trade commission floor; 0 disables it
	MarketImpact   float64
	Seed           int64
}

// Broker is the simulated venue: it owns cash and positions and mutates them
// only through Fill. Not safe for concurrent use; parallel backtests need
// separate instances.
type Broker struct {
	cfg BrokerConfig
	rng *rand.Rand
	log zerolog.Logger

	cash      float64
	positions map[string]float64
	orders    []*Order // active
	filled    []*Order
	trades    []Trade
	recorder  TradeRecorder
}

// NewBroker builds a venue from cfg. The slippage randomness is driven by a
// generator seeded with cfg.Seed so runs are reproducible.
func NewBroker(cfg BrokerConfig, log zerolog.Logger) *Broker {
	if cfg.MinCommission < 0 {
		cfg.MinCommission = 0
	}
	b := &Broker{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		log:       log,
		cash:      cfg.InitialCapital,
		positions: make(map[string]float64),
	}
	log.Info().
		Float64("capital", cfg.InitialCapital).
		Float64("commission", cfg.CommissionRate).
		Float64("slippage", cfg.SlippageRate).
		Msg("broker initialized")
	return b
}

// SetRecorder attaches a trade recorder that mirrors every fill.
func (b *Broker) SetRecorder(r TradeRecorder) { b.recorder = r }

// Cash returns the current free cash.
func (b *Broker) Cash() float64 { return b.cash }

// Position returns the signed holding for symbol, zero when flat.
func (b *Broker) Position(symbol string) float64 { return b.positions[symbol] }

// Positions returns a copy of all holdings.
func (b *Broker) Positions() map[string]float64 {
	out := make(map[string]float64, len(b.positions))
	for s, q := range b.positions {
		out[s] = q
	}
	return out
}

// ActiveOrders returns the current active order set.
func (b *Broker) ActiveOrders() []*Order {
	out := make([]*Order, len(b.orders))
	copy(out, b.orders)
	return out
}

// Trades returns a copy of the trade log.
func (b *Broker) Trades() []Trade {
	out := make([]Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// Submit creates an order in status Submitted and adds it to the active set.
func (b *Broker) Submit(symbol string, quantity float64, kind Kind, limitPrice, stopPrice float64) *Order {
	order := NewOrder(symbol, quantity, kind, limitPrice, stopPrice)
	order.Status = Submitted
	b.orders = append(b.orders, order)

	side := "SELL"
	if order.IsBuy() {
		side = "BUY"
	}
	metrics.OrdersTotal.WithLabelValues(symbol, side).Inc()
	b.log.Debug().Str("order", order.String()).Msg("order submitted")
	return order
}

// slippageFraction models adverse price movement: base rate, market impact
// from order size relative to volume, and a random bid-ask bounce drawn from
// the injected generator.
func (b *Broker) slippageFraction(quantity, volume float64) float64 {
	slippage := b.cfg.SlippageRate
	if volume > 0 {
		slippage += math.Abs(quantity) / volume * b.cfg.MarketImpact
	}
	slippage += b.rng.Float64() * b.cfg.SlippageRate * 0.5
	return slippage
}

// commission applies the rate with a per-trade floor.
func (b *Broker) commission(quantity, price float64) float64 {
	return math.Max(math.Abs(quantity)*price*b.cfg.CommissionRate, b.cfg.MinCommission)
}

// Fill attempts to execute an active order against the current price (and
// optional daily volume; pass 0 when unknown). Returns true when a fill
// happened. A buy without sufficient cash is terminally rejected with no
// state change. Cash, position, order, and trade log are updated together,
// with no intermediate observable state.
func (b *Broker) Fill(order *Order, currentPrice, volume float64) bool {
	if !order.IsActive() {
		return false
	}

	shouldFill := false
	fillPrice := currentPrice
	switch order.Kind {
	case Market:
		shouldFill = true
	case Limit:
		if order.IsBuy() && currentPrice <= order.LimitPrice {
			shouldFill = true
			fillPrice = order.LimitPrice
		} else if order.IsSell() && currentPrice >= order.LimitPrice {
			shouldFill = true
			fillPrice = order.LimitPrice
		}
	case Stop:
		if order.IsBuy() && currentPrice >= order.StopPrice {
			shouldFill = true
		} else if order.IsSell() && currentPrice <= order.StopPrice {
			shouldFill = true
		}
	case StopLimit:
		// treat as stop-triggered limit: once past the stop, fill at the
		// limit when the price is favorable
		if order.IsBuy() && currentPrice >= order.StopPrice && currentPrice <= order.LimitPrice {
			shouldFill = true
			fillPrice = order.LimitPrice
		} else if order.IsSell() && currentPrice <= order.StopPrice && currentPrice >= order.LimitPrice {
			shouldFill = true
			fillPrice = order.LimitPrice
		}
	}
	if !shouldFill {
		return false
	}

	slip := b.slippageFraction(order.Quantity, volume)
	if order.IsBuy() {
		fillPrice *= 1 + slip
	} else {
		fillPrice *= 1 - slip
	}

	commission := b.commission(order.Quantity, fillPrice)

	if order.IsBuy() {
		required := math.Abs(order.Quantity)*fillPrice + commission
		if required > b.cash {
			b.log.Warn().
				Str("order_id", order.ID).
				Float64("required", required).
				Float64("available", b.cash).
				Msg("insufficient cash, order rejected")
			order.Reject()
			metrics.RejectsTotal.WithLabelValues(order.Symbol).Inc()
			b.removeActive(order)
			return false
		}
	}

	fillQuantity := order.Remaining()
	if order.IsSell() {
		fillQuantity = -fillQuantity
	}
	slippageCost := slip * fillPrice * math.Abs(fillQuantity)

	order.ApplyFill(fillQuantity, fillPrice, commission, slippageCost)

	b.positions[order.Symbol] += fillQuantity
	if b.positions[order.Symbol] == 0 {
		delete(b.positions, order.Symbol)
	}
	if order.IsBuy() {
		b.cash -= math.Abs(fillQuantity)*fillPrice + commission
	} else {
		b.cash += math.Abs(fillQuantity)*fillPrice - commission
	}

	trade := Trade{
		Time:       time.Now(),
		Symbol:     order.Symbol,
		Quantity:   fillQuantity,
		Price:      fillPrice,
		Commission: commission,
		Slippage:   slippageCost,
		OrderID:    order.ID,
	}
	b.trades = append(b.trades, trade)
	if b.recorder != nil {
		b.recorder.Record(trade)
	}

	side := "SELL"
	if order.IsBuy() {
		side = "BUY"
	}
	metrics.FillsTotal.WithLabelValues(order.Symbol, side).Inc()
	metrics.TradingCosts.Add(commission + slippageCost)

	if order.Status == Filled {
		b.filled = append(b.filled, order)
		b.removeActive(order)
	}

	b.log.Debug().
		Str("symbol", order.Symbol).
		Float64("qty", fillQuantity).
		Float64("price", fillPrice).
		Float64("commission", commission).
		Float64("slippage", slippageCost).
		Msg("order filled")
	return true
}

// Cancel transitions an active order to Cancelled and drops it from the
// active set; a no-op otherwise.
func (b *Broker) Cancel(order *Order) {
	if !order.IsActive() {
		return
	}
	order.Cancel()
	b.removeActive(order)
	b.log.Debug().Str("order_id", order.ID).Msg("order cancelled")
}

func (b *Broker) removeActive(order *Order) {
	for i, o := range b.orders {
		if o == order {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			return
		}
	}
}

// PortfolioValue is cash plus mark-to-market of all holdings. A held symbol
// with no supplied price contributes zero value.
func (b *Broker) PortfolioValue(prices map[string]float64) float64 {
	value := b.cash
	for symbol, qty := range b.positions {
		value += qty * prices[symbol]
	}
	return value
}

// AccountSummary is a read-side projection of the venue state.
type AccountSummary struct {
	Cash          float64
	PositionValue float64
	TotalValue    float64
	Positions     map[string]float64
	ActiveOrders  int
	FilledOrders  int
	TotalTrades   int
}

// Summary builds an account summary marked at the supplied prices.
func (b *Broker) Summary(prices map[string]float64) AccountSummary {
	var positionValue float64
	for symbol, qty := range b.positions {
		positionValue += qty * prices[symbol]
	}
	return AccountSummary{
		Cash:          b.cash,
		PositionValue: positionValue,
		TotalValue:    b.cash + positionValue,
		Positions:     b.Positions(),
		ActiveOrders:  len(b.orders),
		FilledOrders:  len(b.filled),
		TotalTrades:   len(b.trades),
	}
}

// TradeStats aggregates costs across the trade log.
type TradeStats struct {
	TotalTrades     int
	TotalCommission float64
	TotalSlippage   float64
	TotalCosts      float64
	AvgCommission   float64
	AvgSlippage     float64
	CostFraction    float64 // costs as a fraction of traded value
}

// Stats computes trade statistics as a pure projection of the trade log.
func (b *Broker) Stats() TradeStats {
	stats := TradeStats{TotalTrades: len(b.trades)}
	if len(b.trades) == 0 {
		return stats
	}
	var tradedValue float64
	for _, t := range b.trades {
		stats.TotalCommission += t.Commission
		stats.TotalSlippage += t.Slippage
		tradedValue += math.Abs(t.Quantity) * t.Price
	}
	stats.TotalCosts = stats.TotalCommission + stats.TotalSlippage
	n := float64(len(b.trades))
	stats.AvgCommission = stats.TotalCommission / n
	stats.AvgSlippage = stats.TotalSlippage / n
	if tradedValue > 0 {
		stats.CostFraction = stats.TotalCosts / tradedValue
	}
	return stats
}

// Reset restores initial capital and clears positions, orders, and the trade
// log. Required before any fresh simulation run to avoid state leakage.
func (b *Broker) Reset() {
	b.cash = b.cfg.InitialCapital
	b.positions = make(map[string]float64)
	b.orders = nil
	b.filled = nil
	b.trades = nil
	b.rng = rand.New(rand.NewSource(b.cfg.Seed))
	b.log.Info().Msg("broker reset to initial state")
}
