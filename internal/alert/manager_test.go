package alert

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"cryptrade/internal/logging"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	block    chan struct{}
}

func (n *recordingNotifier) Notify(ctx context.Context, msg string) error {
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func testLogger() *logging.Logger {
	return logging.New(logging.Off, nil)
}

func TestManagerDeliversAndDrainsOnClose(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewManager("kraken", "BTC-EUR", notifier, testLogger())

	m.Important("sell-order finished", map[string]string{"price": "101", "amount": "0.02"})
	m.Important("trading stopped", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := notifier.all()
	if len(got) != 2 {
		t.Fatalf("delivered %d messages, want 2: %v", len(got), got)
	}
	first := got[0]
	for _, want := range []string{"[cryptrade] sell-order finished", "exchange: kraken", "product: BTC-EUR", "amount: 0.02", "price: 101"} {
		if !strings.Contains(first, want) {
			t.Fatalf("message missing %q:\n%s", want, first)
		}
	}
}

func TestManagerNeverBlocksWhenQueueFull(t *testing.T) {
	notifier := &recordingNotifier{block: make(chan struct{})}
	m := NewManagerWithOptions("kraken", "BTC-EUR", notifier, testLogger(), ManagerOptions{QueueSize: 1})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			m.Important("buy-order finished", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Important blocked on a full queue")
	}

	close(notifier.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestManagerCloseIdempotent(t *testing.T) {
	m := NewManager("kraken", "BTC-EUR", &recordingNotifier{}, testLogger())
	ctx := context.Background()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
	// Important after close is a silent no-op.
	m.Important("late event", nil)
}

func TestNilManagerIsSafe(t *testing.T) {
	m := NewManager("kraken", "BTC-EUR", nil, testLogger())
	if m != nil {
		t.Fatalf("manager without notifier should be nil")
	}
	m.Important("event", nil)
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("close on nil manager: %v", err)
	}
}
