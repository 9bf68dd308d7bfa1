// Package paper implements an in-memory exchange for dry runs. Orders rest
// until the simulated market crosses their limit price; balances move the way
// a spot venue would move them, fees included.
package paper

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

type simOrder struct {
	product core.Product
	side    core.Side
	price   decimal.Decimal
	amount  decimal.Decimal
	update  core.OrderUpdate
}

type Exchange struct {
	mu       sync.Mutex
	product  core.Product
	ticker   core.Ticker
	balances map[core.Currency]decimal.Decimal
	orders   map[string]*simOrder
	orderSeq int
	makerFee decimal.Decimal
	takerFee decimal.Decimal
}

type Options struct {
	Product  core.Product
	Balances map[core.Currency]decimal.Decimal
	MakerFee decimal.Decimal
	TakerFee decimal.Decimal
}

func New(opts Options) *Exchange {
	balances := make(map[core.Currency]decimal.Decimal, len(opts.Balances))
	for c, v := range opts.Balances {
		balances[c] = v
	}
	return &Exchange{
		product:  opts.Product,
		balances: balances,
		orders:   make(map[string]*simOrder),
		makerFee: opts.MakerFee,
		takerFee: opts.TakerFee,
	}
}

func (e *Exchange) Name() string { return "paper" }

func (e *Exchange) MakerFee() decimal.Decimal { return e.makerFee }
func (e *Exchange) TakerFee() decimal.Decimal { return e.takerFee }

// SetTicker advances the simulated market and settles any resting order the
// new prices cross.
func (e *Exchange) SetTicker(tick core.Ticker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticker = tick
	e.match()
}

func (e *Exchange) GetProduct(ctx context.Context, trading, buying core.Currency) (core.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !trading.Equal(e.product.TradingCurrency) || !buying.Equal(e.product.BuyingCurrency) {
		return core.Product{}, fmt.Errorf("%w: paper exchange only trades %s", core.ErrUnsupportedProduct, e.product)
	}
	return e.product, nil
}

func (e *Exchange) GetTicker(ctx context.Context, product core.Product) (core.Ticker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ticker.Zero() {
		return core.Ticker{}, fmt.Errorf("paper exchange has no market data yet")
	}
	return e.ticker, nil
}

func (e *Exchange) GetBalances(ctx context.Context) (core.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	account := core.NewAccount()
	for c, v := range e.balances {
		account.Balances[c] = v
	}
	return account, nil
}

func (e *Exchange) PlaceLimitOrder(ctx context.Context, product core.Product, side core.Side, price, amount decimal.Decimal) (core.OrderAck, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount.Sign() <= 0 || price.Sign() <= 0 {
		return core.OrderAck{}, fmt.Errorf("%w: non-positive price or amount", core.ErrInvalidParameter)
	}
	switch side {
	case core.Buy:
		cost := price.Mul(amount)
		if e.balance(product.BuyingCurrency).Cmp(cost) < 0 {
			return core.OrderAck{}, fmt.Errorf("%w: need %s %s", core.ErrInsufficientBalance, cost, product.BuyingCurrency)
		}
	case core.Sell:
		if e.balance(product.TradingCurrency).Cmp(amount) < 0 {
			return core.OrderAck{}, fmt.Errorf("%w: need %s %s", core.ErrInsufficientBalance, amount, product.TradingCurrency)
		}
	default:
		return core.OrderAck{}, fmt.Errorf("%w: side %q", core.ErrInvalidParameter, side)
	}
	e.orderSeq++
	id := "paper-" + strconv.Itoa(e.orderSeq)
	ord := &simOrder{
		product: product,
		side:    side,
		price:   price,
		amount:  amount,
		update:  core.OrderUpdate{Status: core.OrderOpen, UpdatedAt: time.Now()},
	}
	e.orders[id] = ord
	e.match()
	return core.OrderAck{
		ID:            id,
		Status:        ord.update.Status,
		FilledSize:    ord.update.FilledSize,
		ExecutedValue: ord.update.ExecutedValue,
	}, nil
}

func (e *Exchange) OrderStatus(ctx context.Context, product core.Product, orderID string) (core.OrderUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ord, ok := e.orders[orderID]
	if !ok {
		return core.OrderUpdate{}, fmt.Errorf("%w: paper order %s", core.ErrOrderNotFound, orderID)
	}
	return ord.update, nil
}

func (e *Exchange) CancelOrder(ctx context.Context, product core.Product, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ord, ok := e.orders[orderID]
	if !ok {
		return nil
	}
	if !ord.update.Status.Terminal() {
		ord.update.Status = core.OrderCanceled
		ord.update.UpdatedAt = time.Now()
	}
	return nil
}

func (e *Exchange) balance(c core.Currency) decimal.Decimal {
	if v, ok := e.balances[c]; ok {
		return v
	}
	return decimal.Zero
}

// match settles resting orders against the current ticker. Buys fill when the
// ask reaches the limit, sells when the bid does; fills are all-or-nothing at
// the limit price.
func (e *Exchange) match() {
	if e.ticker.Zero() {
		return
	}
	for _, ord := range e.orders {
		if ord.update.Status.Terminal() || ord.update.Status == core.OrderCanceled {
			continue
		}
		var crossed bool
		switch ord.side {
		case core.Buy:
			crossed = e.ticker.Ask.Cmp(ord.price) <= 0
		case core.Sell:
			crossed = e.ticker.Bid.Cmp(ord.price) >= 0
		}
		if !crossed {
			continue
		}
		value := ord.price.Mul(ord.amount)
		fee := value.Mul(e.makerFee)
		trading := ord.product.TradingCurrency
		buying := ord.product.BuyingCurrency
		switch ord.side {
		case core.Buy:
			e.balances[buying] = e.balance(buying).Sub(value).Sub(fee)
			e.balances[trading] = e.balance(trading).Add(ord.amount)
		case core.Sell:
			e.balances[trading] = e.balance(trading).Sub(ord.amount)
			e.balances[buying] = e.balance(buying).Add(value).Sub(fee)
		}
		ord.update = core.OrderUpdate{
			Status:        core.OrderFilled,
			FilledSize:    ord.amount,
			ExecutedValue: value,
			UpdatedAt:     time.Now(),
		}
	}
}
