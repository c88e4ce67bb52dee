// Package marketdata models historical OHLCV bars consumed by strategies and
// the simulation engines.
package marketdata

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoData marks an empty or missing history.
var ErrNoData = errors.New("marketdata: no bars")

// Bar is a single daily observation for one instrument.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // 0 when the source carries no volume
}

// History is a date-ascending series of bars for one symbol.
type History struct {
	Symbol string
	Bars   []Bar
}

// NewHistory sorts bars by date and returns a history for symbol.
func NewHistory(symbol string, bars []Bar) History {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return History{Symbol: symbol, Bars: sorted}
}

// Len returns the number of bars.
func (h History) Len() int { return len(h.Bars) }

// Dates returns the bar dates in order.
func (h History) Dates() []time.Time {
	out := make([]time.Time, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Date
	}
	return out
}

// Closes returns the close series in order.
func (h History) Closes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume series in order.
func (h History) Volumes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Volume
	}
	return out
}

// At returns the bar index for date, or -1 when the history has no bar there.
func (h History) At(date time.Time) int {
	i := sort.Search(len(h.Bars), func(i int) bool { return !h.Bars[i].Date.Before(date) })
	if i < len(h.Bars) && h.Bars[i].Date.Equal(date) {
		return i
	}
	return -1
}

// Validate checks structural integrity before a simulation is allowed to
// start: at least one bar, strictly increasing dates, positive closes.
func (h History) Validate() error {
	if len(h.Bars) == 0 {
		return fmt.Errorf("%w for %s", ErrNoData, h.Symbol)
	}
	for i, b := range h.Bars {
		if b.Close <= 0 {
			return fmt.Errorf("marketdata: %s bar %d has non-positive close %.4f", h.Symbol, i, b.Close)
		}
		if i > 0 && !h.Bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("marketdata: %s bars out of order at %d (%s then %s)",
				h.Symbol, i, h.Bars[i-1].Date.Format("2006-01-02"), b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Intersect returns the sorted dates present in every supplied history.
// Multi-asset simulations only step over dates where every instrument has a
// bar.
func Intersect(histories ...History) []time.Time {
	if len(histories) == 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	for _, h := range histories {
		for _, b := range h.Bars {
			counts[b.Date]++
		}
	}
	var out []time.Time
	for date, n := range counts {
		if n == len(histories) {
			out = append(out, date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
