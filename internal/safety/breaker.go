// Package safety guards the trading loop against a venue that keeps failing:
// consecutive failures of one action trip a breaker, and a tripped breaker
// tells the loop to stand down instead of hammering a broken API.
package safety

import (
	"errors"
	"fmt"
	"sync"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

// Breaker counts consecutive failures of a single action. Once the threshold
// is reached it opens and stays open; a success while still closed resets the
// count.
type Breaker struct {
	mu          sync.Mutex
	action      string
	maxFailures int
	failures    int
	openErr     error
}

// NewBreaker returns a breaker for the named action. A threshold below one
// disables it.
func NewBreaker(action string, maxFailures int) *Breaker {
	return &Breaker{action: action, maxFailures: maxFailures}
}

// Failure records one failed attempt. The returned error is non-nil exactly
// when the breaker is open, with the failure that tripped it attached.
func (b *Breaker) Failure(cause error) error {
	if b == nil || b.maxFailures < 1 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return b.openErr
	}
	b.failures++
	if b.failures < b.maxFailures {
		return nil
	}
	b.openErr = fmt.Errorf("%w: %s failed %d consecutive times, last error: %v",
		ErrCircuitOpen, b.action, b.failures, cause)
	return b.openErr
}

// Success resets the failure count. It has no effect once the breaker is open.
func (b *Breaker) Success() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr == nil {
		b.failures = 0
	}
}

// Tripped reports whether the breaker is open.
func (b *Breaker) Tripped() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openErr != nil
}
