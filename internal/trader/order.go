package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
	"cryptrade/internal/exchange"
)

// Order tracks one limit order from submission to settlement. Submission and
// polling failures never propagate as errors; they are captured in the order's
// fields so the trading loop can reason about them uniformly.
type Order struct {
	Side    core.Side
	Product core.Product
	Price   decimal.Decimal
	Amount  decimal.Decimal

	Created       bool
	ID            string
	Status        core.OrderStatus
	FilledSize    decimal.Decimal
	ExecutedValue decimal.Decimal
	Settled       bool
	Message       string
	SettledAt     time.Time

	ex exchange.Exchange
}

// NewOrder formats price and amount to the product's precision, validates them
// and submits. A failed submission yields an already-settled error order with
// Created=false.
func NewOrder(ctx context.Context, ex exchange.Exchange, product core.Product, side core.Side, price, amount decimal.Decimal) *Order {
	o := &Order{
		Side:    side,
		Product: product,
		Price:   product.FormatPrice(price),
		Amount:  product.FormatAmount(amount),
		Status:  core.OrderOpen,
		ex:      ex,
	}
	if !product.Valid(o.Amount, o.Price) {
		o.fail(fmt.Errorf("invalid amount/price for order: %s @ %s", o.Amount, o.Price))
		return o
	}
	ack, err := ex.PlaceLimitOrder(ctx, product, side, o.Price, o.Amount)
	if err != nil {
		o.fail(err)
		return o
	}
	o.Created = true
	o.ID = ack.ID
	o.Status = ack.Status
	o.FilledSize = ack.FilledSize
	o.ExecutedValue = ack.ExecutedValue
	o.Message = "order creation successful"
	if ack.Status.Terminal() {
		o.settle(ack.Status)
	}
	return o
}

func (o *Order) fail(err error) {
	o.Created = false
	o.ID = ""
	o.Status = core.OrderError
	o.FilledSize = decimal.Zero
	o.ExecutedValue = decimal.Zero
	o.Settled = true
	o.SettledAt = time.Now()
	o.Message = fmt.Sprintf("invalid order: %v", err)
}

func (o *Order) settle(status core.OrderStatus) {
	o.Status = status
	o.Settled = true
	o.SettledAt = time.Now()
}

// Error reports whether the most recent operation on the order failed.
func (o *Order) Error() bool {
	return o.Status == core.OrderError
}

// Refresh polls the exchange and reports whether the order has settled.
// Fill figures only ever grow; a shrinking response is ignored. An
// order-not-found answer settles the order, any other poll failure is recorded
// as a transient error without settling.
func (o *Order) Refresh(ctx context.Context) bool {
	if o.Settled || !o.Created {
		return o.Settled
	}
	update, err := o.ex.OrderStatus(ctx, o.Product, o.ID)
	if err != nil {
		if errors.Is(err, core.ErrOrderNotFound) {
			o.settle(core.OrderCanceled)
			o.Message = fmt.Sprintf("order vanished on exchange: %v", err)
			return true
		}
		o.Status = core.OrderError
		o.Message = fmt.Sprintf("get order exception: %v", err)
		return false
	}
	o.Status = update.Status
	if update.FilledSize.Cmp(o.FilledSize) > 0 {
		o.FilledSize = update.FilledSize
	}
	if update.ExecutedValue.Cmp(o.ExecutedValue) > 0 {
		o.ExecutedValue = update.ExecutedValue
	}
	// Venues that omit the cumulative value get it reconstructed from the
	// limit price.
	if o.ExecutedValue.Sign() == 0 && o.FilledSize.Sign() > 0 {
		o.ExecutedValue = o.FilledSize.Mul(o.Price)
	}
	if update.Status.Terminal() {
		o.settle(update.Status)
	}
	return o.Settled
}

// cancelGrace bounds the venue round-trip for a cancel issued during
// shutdown, when the session context is already gone.
const cancelGrace = 10 * time.Second

// Cancel is idempotent and best-effort: a settled order is left alone, an open
// one is marked canceled locally whether or not the exchange confirms. On
// shutdown the session context is already canceled, but the venue still has to
// hear the cancel, so it runs on its own short deadline then.
func (o *Order) Cancel(ctx context.Context) {
	if o.Settled || !o.Created {
		return
	}
	o.settle(core.OrderCanceled)
	o.Message = "order canceled"
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), cancelGrace)
		defer cancel()
	}
	if err := o.ex.CancelOrder(ctx, o.Product, o.ID); err != nil {
		o.Message = fmt.Sprintf("cancellation failed: %v", err)
	}
}

// Fields flattens the order for structured logging and alerts.
func (o *Order) Fields() map[string]string {
	return map[string]string{
		"side":           string(o.Side),
		"product":        o.Product.String(),
		"order_id":       o.ID,
		"price":          o.Price.String(),
		"amount":         o.Amount.String(),
		"status":         string(o.Status),
		"filled_size":    o.FilledSize.String(),
		"executed_value": o.ExecutedValue.String(),
		"message":        o.Message,
	}
}
