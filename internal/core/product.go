package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product describes one tradeable pair on one exchange: its native pair id and
// the minimum-order and precision constraints from the exchange's instrument
// metadata. Built once at session start, immutable afterwards.
type Product struct {
	TradingCurrency Currency
	BuyingCurrency  Currency
	ID              string

	MinAmount   decimal.Decimal
	MinPrice    decimal.Decimal
	MinNotional decimal.Decimal
	PriceTick   decimal.Decimal
	AmountStep  decimal.Decimal
}

// NewProduct validates the currency pair. Constraint fields are filled in by
// the adapter from exchange metadata.
func NewProduct(trading, buying Currency, id string) (Product, error) {
	if trading.Equal(buying) {
		return Product{}, fmt.Errorf("%w: trading and buying currency cannot be the same (%s)", ErrUnsupportedProduct, trading)
	}
	if trading == "" || buying == "" {
		return Product{}, fmt.Errorf("%w: empty currency code", ErrUnsupportedProduct)
	}
	return Product{TradingCurrency: trading, BuyingCurrency: buying, ID: id}, nil
}

// Valid reports whether an order of the given size would clear every exchange
// minimum. Boundary equality passes.
func (p Product) Valid(amount, price decimal.Decimal) bool {
	if amount.Cmp(p.MinAmount) < 0 {
		return false
	}
	if price.Cmp(p.MinPrice) < 0 {
		return false
	}
	if amount.Mul(price).Cmp(p.MinNotional) < 0 {
		return false
	}
	return true
}

// FormatPrice truncates price down to the exchange tick size. The result never
// exceeds the input, so a formatted order never spends more than authorized.
func (p Product) FormatPrice(price decimal.Decimal) decimal.Decimal {
	return RoundDown(price, p.PriceTick)
}

// FormatAmount truncates amount down to the exchange amount step.
func (p Product) FormatAmount(amount decimal.Decimal) decimal.Decimal {
	return RoundDown(amount, p.AmountStep)
}

func (p Product) String() string {
	return string(p.TradingCurrency) + "-" + string(p.BuyingCurrency)
}

// RoundDown floors value to a multiple of step. A non-positive step leaves the
// value untouched.
func RoundDown(value, step decimal.Decimal) decimal.Decimal {
	if step.Cmp(decimal.Zero) <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}
