package paper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func testExchange(t *testing.T) *Exchange {
	t.Helper()
	p, err := core.NewProduct(core.NewCurrency("BTC"), core.NewCurrency("EUR"), "BTC-EUR")
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	p.PriceTick = dec("0.01")
	p.AmountStep = dec("0.00000001")
	return New(Options{
		Product: p,
		Balances: map[core.Currency]decimal.Decimal{
			core.NewCurrency("BTC"): dec("1"),
			core.NewCurrency("EUR"): dec("1000"),
		},
		MakerFee: dec("0.001"),
		TakerFee: dec("0.002"),
	})
}

func tick(bid, ask string) core.Ticker {
	return core.Ticker{Bid: dec(bid), Ask: dec(ask), Last: dec(bid), Time: time.Now()}
}

func TestTickerRequiredBeforeQuotes(t *testing.T) {
	e := testExchange(t)
	if _, err := e.GetTicker(context.Background(), core.Product{}); err == nil {
		t.Fatalf("expected error before first ticker")
	}
	e.SetTicker(tick("100", "101"))
	got, err := e.GetTicker(context.Background(), core.Product{})
	if err != nil {
		t.Fatalf("ticker: %v", err)
	}
	if got.Bid.Cmp(dec("100")) != 0 {
		t.Fatalf("bid = %s, want 100", got.Bid)
	}
}

func TestBuyFillsWhenAskCrosses(t *testing.T) {
	e := testExchange(t)
	ctx := context.Background()
	e.SetTicker(tick("100", "101"))

	ack, err := e.PlaceLimitOrder(ctx, e.product, core.Buy, dec("99"), dec("0.5"))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if ack.Status != core.OrderOpen {
		t.Fatalf("order should rest below the ask, status = %s", ack.Status)
	}

	e.SetTicker(tick("98", "99"))
	update, err := e.OrderStatus(ctx, e.product, ack.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if update.Status != core.OrderFilled {
		t.Fatalf("status = %s, want filled", update.Status)
	}
	if update.FilledSize.Cmp(dec("0.5")) != 0 || update.ExecutedValue.Cmp(dec("49.5")) != 0 {
		t.Fatalf("fill = %s / %s, want 0.5 / 49.5", update.FilledSize, update.ExecutedValue)
	}

	// 1000 - 49.5 - fee 0.0495
	account, _ := e.GetBalances(ctx)
	if got := account.Balance(core.NewCurrency("EUR")); got.Cmp(dec("950.4505")) != 0 {
		t.Fatalf("EUR balance = %s, want 950.4505", got)
	}
	if got := account.Balance(core.NewCurrency("BTC")); got.Cmp(dec("1.5")) != 0 {
		t.Fatalf("BTC balance = %s, want 1.5", got)
	}
}

func TestSellFillsWhenBidCrosses(t *testing.T) {
	e := testExchange(t)
	ctx := context.Background()
	e.SetTicker(tick("100", "101"))

	ack, err := e.PlaceLimitOrder(ctx, e.product, core.Sell, dec("102"), dec("0.5"))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	e.SetTicker(tick("103", "104"))

	update, err := e.OrderStatus(ctx, e.product, ack.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if update.Status != core.OrderFilled {
		t.Fatalf("status = %s, want filled", update.Status)
	}

	// 1000 + 51 - fee 0.051
	account, _ := e.GetBalances(ctx)
	if got := account.Balance(core.NewCurrency("EUR")); got.Cmp(dec("1050.949")) != 0 {
		t.Fatalf("EUR balance = %s, want 1050.949", got)
	}
	if got := account.Balance(core.NewCurrency("BTC")); got.Cmp(dec("0.5")) != 0 {
		t.Fatalf("BTC balance = %s, want 0.5", got)
	}
}

func TestInsufficientBalanceRejected(t *testing.T) {
	e := testExchange(t)
	ctx := context.Background()
	e.SetTicker(tick("100", "101"))

	_, err := e.PlaceLimitOrder(ctx, e.product, core.Buy, dec("100"), dec("100"))
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want insufficient balance", err)
	}
	_, err = e.PlaceLimitOrder(ctx, e.product, core.Sell, dec("100"), dec("2"))
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want insufficient balance", err)
	}
}

func TestCancelStopsMatching(t *testing.T) {
	e := testExchange(t)
	ctx := context.Background()
	e.SetTicker(tick("100", "101"))

	ack, err := e.PlaceLimitOrder(ctx, e.product, core.Buy, dec("99"), dec("0.5"))
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := e.CancelOrder(ctx, e.product, ack.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// The market crossing afterwards must not resurrect the order.
	e.SetTicker(tick("98", "99"))

	update, err := e.OrderStatus(ctx, e.product, ack.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if update.Status != core.OrderCanceled {
		t.Fatalf("status = %s, want canceled", update.Status)
	}
	if err := e.CancelOrder(ctx, e.product, "paper-404"); err != nil {
		t.Fatalf("cancel of unknown order should be a no-op, got %v", err)
	}
}

func TestUnknownOrderStatus(t *testing.T) {
	e := testExchange(t)
	_, err := e.OrderStatus(context.Background(), e.product, "paper-404")
	if !errors.Is(err, core.ErrOrderNotFound) {
		t.Fatalf("err = %v, want order not found", err)
	}
}

func TestGetProductRejectsOtherPairs(t *testing.T) {
	e := testExchange(t)
	_, err := e.GetProduct(context.Background(), core.NewCurrency("ETH"), core.NewCurrency("EUR"))
	if !errors.Is(err, core.ErrUnsupportedProduct) {
		t.Fatalf("err = %v, want unsupported product", err)
	}
}
