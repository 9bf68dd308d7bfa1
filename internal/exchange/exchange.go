package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

// Exchange is the capability set every adapter provides. Adapters translate
// generic currency identifiers to exchange-native ones via their own mapping
// tables and translate native responses back into the core shapes.
type Exchange interface {
	Name() string

	// GetProduct resolves a currency pair against the exchange's instrument
	// metadata. Unsupported pairs return core.ErrUnsupportedProduct.
	GetProduct(ctx context.Context, trading, buying core.Currency) (core.Product, error)

	// GetTicker returns a fresh market snapshot. Callers decide how to react
	// to a failed refresh; the adapter never hides one.
	GetTicker(ctx context.Context, product core.Product) (core.Ticker, error)

	// GetBalances returns the full account balance map.
	GetBalances(ctx context.Context) (core.Account, error)

	// PlaceLimitOrder submits a single-price limit order. Price and amount
	// must already be formatted to the product's precision.
	PlaceLimitOrder(ctx context.Context, product core.Product, side core.Side, price, amount decimal.Decimal) (core.OrderAck, error)

	// OrderStatus queries one order by exchange id.
	OrderStatus(ctx context.Context, product core.Product, orderID string) (core.OrderUpdate, error)

	// CancelOrder requests cancellation, best effort.
	CancelOrder(ctx context.Context, product core.Product, orderID string) error

	MakerFee() decimal.Decimal
	TakerFee() decimal.Decimal
}
