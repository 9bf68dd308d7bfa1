// Package monitor keeps bounded in-memory statistics over ticker snapshots
// and pumps them to consumers over channels.
package monitor

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

// TickerWindow keeps the ticker snapshots of the trailing time window and
// exposes high/low/average of the last-trade price. Entries older than the
// window are evicted on every add, so memory stays bounded.
type TickerWindow struct {
	mu      sync.Mutex
	window  time.Duration
	entries []core.Ticker
	high    decimal.Decimal
	low     decimal.Decimal
	average decimal.Decimal
}

func NewTickerWindow(window time.Duration) *TickerWindow {
	return &TickerWindow{window: window}
}

// Add records a snapshot and recomputes the window statistics. Snapshots
// without a timestamp are ignored.
func (w *TickerWindow) Add(tick core.Ticker) {
	if tick.Zero() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := 0
	for cutoff < len(w.entries) && tick.Time.Sub(w.entries[cutoff].Time) > w.window {
		cutoff++
	}
	w.entries = append(w.entries[cutoff:], tick)

	w.high = w.entries[0].Last
	w.low = w.entries[0].Last
	sum := decimal.Zero
	for _, e := range w.entries {
		if e.Last.Cmp(w.high) > 0 {
			w.high = e.Last
		}
		if e.Last.Cmp(w.low) < 0 {
			w.low = e.Last
		}
		sum = sum.Add(e.Last)
	}
	w.average = sum.Div(decimal.NewFromInt(int64(len(w.entries))))
}

// Stats returns high, low and average over the current window. The bool is
// false while the window is empty.
func (w *TickerWindow) Stats() (high, low, average decimal.Decimal, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero, false
	}
	return w.high, w.low, w.average, true
}

// Len reports the number of snapshots currently inside the window.
func (w *TickerWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Period is the time span covered by the snapshots currently in the window.
func (w *TickerWindow) Period() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.entries) < 2 {
		return 0
	}
	return w.entries[len(w.entries)-1].Time.Sub(w.entries[0].Time)
}
