package monitor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

func snap(at time.Time, last string) core.Ticker {
	price := decimal.RequireFromString(last)
	return core.Ticker{Bid: price, Ask: price, Last: price, Time: at}
}

func TestWindowStats(t *testing.T) {
	w := NewTickerWindow(time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, _, _, ok := w.Stats(); ok {
		t.Fatalf("empty window must report not-ok")
	}

	w.Add(snap(base, "100"))
	w.Add(snap(base.Add(10*time.Second), "104"))
	w.Add(snap(base.Add(20*time.Second), "99"))

	high, low, average, ok := w.Stats()
	if !ok {
		t.Fatalf("window with entries must report ok")
	}
	if high.Cmp(decimal.RequireFromString("104")) != 0 {
		t.Fatalf("high = %s, want 104", high)
	}
	if low.Cmp(decimal.RequireFromString("99")) != 0 {
		t.Fatalf("low = %s, want 99", low)
	}
	if average.Cmp(decimal.RequireFromString("101")) != 0 {
		t.Fatalf("average = %s, want 101", average)
	}
	if w.Len() != 3 {
		t.Fatalf("len = %d, want 3", w.Len())
	}
	if w.Period() != 20*time.Second {
		t.Fatalf("period = %s, want 20s", w.Period())
	}
}

func TestWindowEvictsOldEntries(t *testing.T) {
	w := NewTickerWindow(time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	w.Add(snap(base, "200")) // will fall out of the window
	w.Add(snap(base.Add(30*time.Second), "101"))
	w.Add(snap(base.Add(90*time.Second), "102"))

	high, low, _, ok := w.Stats()
	if !ok {
		t.Fatalf("window should not be empty")
	}
	if high.Cmp(decimal.RequireFromString("102")) != 0 {
		t.Fatalf("high = %s, evicted entry still counted", high)
	}
	if low.Cmp(decimal.RequireFromString("101")) != 0 {
		t.Fatalf("low = %s, want 101", low)
	}
	if w.Len() != 2 {
		t.Fatalf("len = %d, want 2 after eviction", w.Len())
	}
}

func TestWindowIgnoresZeroSnapshots(t *testing.T) {
	w := NewTickerWindow(time.Minute)
	w.Add(core.Ticker{})
	if w.Len() != 0 {
		t.Fatalf("snapshot without timestamp must be ignored")
	}
}
