// Package journal persists trade records produced by the simulated venue.
package journal

import (
	"sync"

	"systrade-go/internal/execution"
)

// Ledger stores trades in memory for quick inspection.
type Ledger struct {
	mu     sync.Mutex
	trades []execution.Trade
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{trades: make([]execution.Trade, 0, capacity)}
}

// Record appends a trade to the ledger.
func (l *Ledger) Record(trade execution.Trade) {
	l.mu.Lock()
	l.trades = append(l.trades, trade)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded trades.
func (l *Ledger) Snapshot() []execution.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Reset clears all stored trades.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.trades = l.trades[:0]
	l.mu.Unlock()
}
