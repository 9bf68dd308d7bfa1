// Package trader drives the symmetric market-making loop: one buy order below
// the market, one sell order above it, poll until a side settles, rebalance
// unit sizing and go again.
package trader

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cryptrade/internal/alert"
	"cryptrade/internal/core"
	"cryptrade/internal/exchange"
	"cryptrade/internal/logging"
	"cryptrade/internal/safety"
)

type Trader struct {
	ex      exchange.Exchange
	product core.Product
	log     *logging.Logger
	alerter alert.Alerter

	delta           decimal.Decimal
	basicAmount     decimal.Decimal
	basicUnits      int64
	lowPrice        decimal.Decimal
	highPrice       decimal.Decimal
	allowEmptyOrder bool
	pollInterval    time.Duration
	singleOrderWait time.Duration

	buyUnits    int64
	sellUnits   int64
	buying      *Transactions
	selling     *Transactions
	pollBreaker *safety.Breaker

	ticker  core.Ticker
	account core.Account
}

type Options struct {
	Exchange exchange.Exchange
	Product  core.Product
	Logger   *logging.Logger
	Alerter  alert.Alerter

	// Delta is the price offset as a fraction (0.015 for 1.5%).
	Delta           decimal.Decimal
	BasicAmount     decimal.Decimal
	BasicUnits      int64
	LowPrice        decimal.Decimal
	HighPrice       decimal.Decimal
	AllowEmptyOrder bool
	PollInterval    time.Duration
	SingleOrderWait time.Duration

	// MaxPollFailures stops the session after that many consecutive failed
	// status polls. Zero picks a default, a negative value disables the guard.
	MaxPollFailures int
}

// Result sums up a finished session in buying-currency terms.
type Result struct {
	Buying  *Transactions
	Selling *Transactions
}

// Net is the session outcome: sell proceeds minus sell fees minus buy cost
// minus buy fees.
func (r Result) Net() decimal.Decimal {
	return r.Selling.Value().
		Sub(r.Selling.TotalFee()).
		Sub(r.Buying.Value()).
		Sub(r.Buying.TotalFee())
}

const defaultMaxPollFailures = 10

func New(opts Options) *Trader {
	basicUnits := opts.BasicUnits
	if basicUnits < 1 {
		basicUnits = 1
	}
	maxPollFailures := opts.MaxPollFailures
	if maxPollFailures == 0 {
		maxPollFailures = defaultMaxPollFailures
	}
	return &Trader{
		ex:              opts.Exchange,
		product:         opts.Product,
		log:             opts.Logger,
		alerter:         opts.Alerter,
		delta:           opts.Delta,
		basicAmount:     opts.BasicAmount,
		basicUnits:      basicUnits,
		lowPrice:        opts.LowPrice,
		highPrice:       opts.HighPrice,
		allowEmptyOrder: opts.AllowEmptyOrder,
		pollInterval:    opts.PollInterval,
		singleOrderWait: opts.SingleOrderWait,
		buyUnits:        basicUnits,
		sellUnits:       basicUnits,
		buying:          NewTransactions("buy", opts.Exchange.MakerFee()),
		selling:         NewTransactions("sell", opts.Exchange.MakerFee()),
		pollBreaker:     safety.NewBreaker("order poll", maxPollFailures),
	}
}

// Run trades until the market leaves the configured band, both sides fail to
// submit, or the context ends. The result is returned in all cases.
func (t *Trader) Run(ctx context.Context) Result {
	trading := true
	for trading && ctx.Err() == nil {
		snap := t.refreshMarket(ctx)
		if snap.tickerStale || snap.accountStale {
			t.log.Detailed("market_snapshot_stale", map[string]string{
				"ticker_stale":  strconv.FormatBool(snap.tickerStale),
				"account_stale": strconv.FormatBool(snap.accountStale),
			})
		}

		buyOrder := t.submitBuy(ctx, snap)
		sellOrder := t.submitSell(ctx, snap)

		singleOrder := false
		switch {
		case !buyOrder.Created && !sellOrder.Created:
			trading = false
		case !buyOrder.Created || !sellOrder.Created:
			trading = t.allowEmptyOrder
			singleOrder = true
		}

		checkOrders := true
		totalWait := time.Duration(0)
		for trading && checkOrders {
			select {
			case <-ctx.Done():
				trading = false
			case <-time.After(t.pollInterval):
			}
			if !trading {
				break
			}
			totalWait += t.pollInterval

			if singleOrder && totalWait > t.singleOrderWait {
				checkOrders = false
			}

			for _, ord := range []*Order{sellOrder, buyOrder} {
				settled, stop := t.pollOrder(ctx, ord)
				if settled {
					checkOrders = false
				}
				if stop {
					trading = false
					checkOrders = false
				}
			}
		}

		buyOrder.Cancel(ctx)
		sellOrder.Cancel(ctx)
		t.log.Detailed("totals", t.buying.Fields())
		t.log.Detailed("totals", t.selling.Fields())
	}

	result := Result{Buying: t.buying, Selling: t.selling}
	t.log.Basic("trading_stopped", map[string]string{"result": result.Net().StringFixed(2)})
	if t.alerter != nil {
		t.alerter.Important("trading stopped", map[string]string{"result": result.Net().StringFixed(2)})
	}
	return result
}

// marketSnapshot is what one refresh round produced. The stale flags say a
// half could not be refreshed and carries the previous cycle's values.
type marketSnapshot struct {
	ticker       core.Ticker
	account      core.Account
	tickerStale  bool
	accountStale bool
}

// refreshMarket fetches ticker and balances best-effort. A failed fetch keeps
// the previous values and marks that half of the snapshot stale, so the caller
// sees the staleness instead of a hidden retry.
func (t *Trader) refreshMarket(ctx context.Context) marketSnapshot {
	snap := marketSnapshot{ticker: t.ticker, account: t.account}
	if tick, err := t.ex.GetTicker(ctx, t.product); err != nil {
		snap.tickerStale = true
		t.log.Detailed("ticker_refresh_failed", map[string]string{"error": err.Error()})
	} else {
		t.ticker = tick
		snap.ticker = tick
		t.log.Detailed("ticker", map[string]string{
			"bid":    tick.Bid.String(),
			"ask":    tick.Ask.String(),
			"last":   tick.Last.String(),
			"spread": tick.Spread().String(),
		})
	}
	if account, err := t.ex.GetBalances(ctx); err != nil {
		snap.accountStale = true
		t.log.Detailed("account_refresh_failed", map[string]string{"error": err.Error()})
	} else {
		t.account = account
		snap.account = account
		t.log.Detailed("account", map[string]string{
			string(t.product.TradingCurrency): account.Balance(t.product.TradingCurrency).String(),
			string(t.product.BuyingCurrency):  account.Balance(t.product.BuyingCurrency).String(),
		})
	}
	return snap
}

// pollOrder refreshes one order and feeds the poll breaker. stop is true once
// polling has failed often enough in a row that continuing is pointless.
func (t *Trader) pollOrder(ctx context.Context, ord *Order) (settled, stop bool) {
	if !ord.Created {
		return false, false
	}
	if ord.Refresh(ctx) {
		t.pollBreaker.Success()
		t.recordSettlement(ord)
		return true, false
	}
	if !ord.Error() {
		t.pollBreaker.Success()
		return false, false
	}
	t.log.Detailed("order_poll_failed", ord.Fields())
	if trip := t.pollBreaker.Failure(errors.New(ord.Message)); trip != nil {
		t.log.Error("order_polling_gave_up", map[string]string{"error": trip.Error()})
		if t.alerter != nil {
			t.alerter.Important("order polling gave up", map[string]string{"error": trip.Error()})
		}
		return false, true
	}
	return false, false
}

func (t *Trader) submitBuy(ctx context.Context, snap marketSnapshot) *Order {
	one := decimal.NewFromInt(1)
	price := decimal.Min(t.highPrice, snap.ticker.Bid.Mul(one.Sub(t.delta)))
	amount := decimal.NewFromInt(t.buyUnits).Mul(t.basicAmount)
	if price.Sign() > 0 {
		amount = decimal.Min(amount, snap.account.Balance(t.product.BuyingCurrency).Div(price))
	}
	ord := NewOrder(ctx, t.ex, t.product, core.Buy, price, amount)
	t.log.Detailed("order_submitted", ord.Fields())
	return ord
}

func (t *Trader) submitSell(ctx context.Context, snap marketSnapshot) *Order {
	one := decimal.NewFromInt(1)
	price := decimal.Max(t.lowPrice, snap.ticker.Ask.Mul(one.Add(t.delta)))
	amount := decimal.Min(
		decimal.NewFromInt(t.sellUnits).Mul(t.basicAmount),
		snap.account.Balance(t.product.TradingCurrency),
	)
	ord := NewOrder(ctx, t.ex, t.product, core.Sell, price, amount)
	t.log.Detailed("order_submitted", ord.Fields())
	return ord
}

// recordSettlement books a settled order with a real fill and rebalances unit
// sizing: the filled side grows by one unit, the other shrinks but never below
// the configured base.
func (t *Trader) recordSettlement(ord *Order) {
	if ord.FilledSize.Sign() <= 0 {
		return
	}
	switch ord.Side {
	case core.Buy:
		t.buying.Add(ord.FilledSize, ord.ExecutedValue)
		t.buyUnits++
		if t.sellUnits > t.basicUnits {
			t.sellUnits--
		}
		t.announce("buy-order finished", ord)
	case core.Sell:
		t.selling.Add(ord.FilledSize, ord.ExecutedValue)
		t.sellUnits++
		if t.buyUnits > t.basicUnits {
			t.buyUnits--
		}
		t.announce("sell-order finished", ord)
	}
}

func (t *Trader) announce(event string, ord *Order) {
	t.log.Basic("order_finished", ord.Fields())
	if t.alerter != nil {
		t.alerter.Important(event, ord.Fields())
	}
}

// Units exposes the current unit sizing, mainly for tests and status output.
func (t *Trader) Units() (buy, sell int64) {
	return t.buyUnits, t.sellUnits
}
