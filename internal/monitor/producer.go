package monitor

import (
	"context"
	"time"

	"cryptrade/internal/core"
	"cryptrade/internal/exchange"
	"cryptrade/internal/logging"
)

// TickerSource is anything that can answer a ticker query; the exchange
// capability interface satisfies it.
type TickerSource interface {
	Name() string
	GetTicker(ctx context.Context, product core.Product) (core.Ticker, error)
}

var _ TickerSource = exchange.Exchange(nil)

// Producer polls a source at a fixed interval and pushes snapshots into a
// single-consumer channel. A failed poll is logged and skipped; the consumer
// simply sees no snapshot for that interval.
type Producer struct {
	source   TickerSource
	product  core.Product
	interval time.Duration
	log      *logging.Logger
}

func NewProducer(source TickerSource, product core.Product, interval time.Duration, log *logging.Logger) *Producer {
	return &Producer{source: source, product: product, interval: interval, log: log}
}

// Run polls until the context ends. The returned channel is closed on exit so
// consumers can range over it.
func (p *Producer) Run(ctx context.Context) <-chan core.Ticker {
	out := make(chan core.Ticker)
	go func() {
		defer close(out)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			tick, err := p.source.GetTicker(ctx, p.product)
			if err != nil {
				p.log.Detailed("ticker_poll_failed", map[string]string{
					"source": p.source.Name(),
					"error":  err.Error(),
				})
			} else {
				select {
				case out <- tick:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
