// Package execution implements the order lifecycle, the simulated venue
// with its cost and slippage model, and the step-by-step engine that drives
// them from forecasts.
package execution

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Kind enumerates supported order kinds.
type Kind string

const (
	Market    Kind = "MARKET"
	Limit     Kind = "LIMIT"
	Stop      Kind = "STOP"
	StopLimit Kind = "STOP_LIMIT"
)

// Status enumerates order lifecycle states. Filled, Cancelled, and Rejected
// are terminal.
type Status string

const (
	Pending     Status = "PENDING"
	Submitted   Status = "SUBMITTED"
	PartialFill Status = "PARTIAL_FILL"
	Filled      Status = "FILLED"
	Cancelled   Status = "CANCELLED"
	Rejected    Status = "REJECTED"
)

// Order is a placement request plus its accumulated fill state. The sign of
// Quantity encodes direction (positive buy, negative sell) and never changes
// after creation.
type Order struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Quantity   float64   `json:"quantity"`
	Kind       Kind      `json:"kind"`
	LimitPrice float64   `json:"limit_price,omitempty"`
	StopPrice  float64   `json:"stop_price,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Status     Status    `json:"status"`

	FilledQuantity float64 `json:"filled_quantity"`
	AvgFillPrice   float64 `json:"avg_fill_price"`
	Commission     float64 `json:"commission"`
	Slippage       float64 `json:"slippage"`
}

// NewOrder creates a pending order with a fresh identifier.
func NewOrder(symbol string, quantity float64, kind Kind, limitPrice, stopPrice float64) *Order {
	return &Order{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Quantity:   quantity,
		Kind:       kind,
		LimitPrice: limitPrice,
		StopPrice:  stopPrice,
		CreatedAt:  time.Now(),
		Status:     Pending,
	}
}

// IsBuy reports whether the order increases the position.
func (o *Order) IsBuy() bool { return o.Quantity > 0 }

// IsSell reports whether the order decreases the position.
func (o *Order) IsSell() bool { return o.Quantity < 0 }

// IsActive reports whether the order can still be filled or cancelled.
func (o *Order) IsActive() bool {
	switch o.Status {
	case Pending, Submitted, PartialFill:
		return true
	}
	return false
}

// Remaining returns the unfilled magnitude.
func (o *Order) Remaining() float64 {
	return math.Abs(o.Quantity) - math.Abs(o.FilledQuantity)
}

// ApplyFill folds one fill into the order: cumulative quantity, running
// volume-weighted average price, cost accumulation, and the status
// transition. fillQuantity carries the order's sign.
func (o *Order) ApplyFill(fillQuantity, fillPrice, commission, slippageCost float64) {
	prevFilled := math.Abs(o.FilledQuantity)
	o.FilledQuantity += fillQuantity

	filled := math.Abs(o.FilledQuantity)
	if filled > 0 {
		o.AvgFillPrice = (o.AvgFillPrice*prevFilled + fillPrice*math.Abs(fillQuantity)) / filled
	}
	o.Commission += commission
	o.Slippage += slippageCost

	switch {
	case filled >= math.Abs(o.Quantity):
		o.Status = Filled
	case filled > 0:
		o.Status = PartialFill
	default:
		o.Status = Submitted
	}
}

// Cancel transitions an active order to Cancelled; a no-op otherwise.
func (o *Order) Cancel() {
	if o.IsActive() {
		o.Status = Cancelled
	}
}

// Reject marks the order terminally rejected.
func (o *Order) Reject() { o.Status = Rejected }

// String renders the order for logs.
func (o *Order) String() string {
	direction := "SELL"
	if o.IsBuy() {
		direction = "BUY"
	}
	return fmt.Sprintf("Order(%s, %s %.0f %s @ %s, %s)",
		o.ID, direction, math.Abs(o.Quantity), o.Symbol, o.Kind, o.Status)
}
