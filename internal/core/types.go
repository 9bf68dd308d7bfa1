package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

type OrderStatus string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

const (
	OrderOpen     OrderStatus = "OPEN"
	OrderCreated  OrderStatus = "CREATED"
	OrderFilled   OrderStatus = "FILLED"
	OrderCanceled OrderStatus = "CANCELED"
	OrderExpired  OrderStatus = "EXPIRED"
	OrderRejected OrderStatus = "REJECTED"
	OrderError    OrderStatus = "ERROR"
)

// Terminal reports whether an exchange-side status ends the order's life.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderFilled, OrderCanceled, OrderExpired, OrderRejected:
		return true
	default:
		return false
	}
}

// Currency is a generic currency code ("BTC", "EUR"). Exchange-native codes
// live in per-adapter mapping tables, never here.
type Currency string

func NewCurrency(id string) Currency {
	return Currency(normalizeCurrency(id))
}

func (c Currency) Equal(other Currency) bool { return string(c) == string(other) }

func (c Currency) String() string { return string(c) }

// Ticker is a point-in-time market snapshot. Callers that tolerate staleness
// keep the previous value when a refresh fails.
type Ticker struct {
	Bid  decimal.Decimal
	Ask  decimal.Decimal
	Last decimal.Decimal
	Time time.Time
}

func (t Ticker) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}

func (t Ticker) Zero() bool {
	return t.Time.IsZero()
}

// Account maps generic currency codes to available balances. Refreshed
// wholesale on every successful balance call, never patched incrementally.
type Account struct {
	Balances  map[Currency]decimal.Decimal
	UpdatedAt time.Time
}

func NewAccount() Account {
	return Account{Balances: make(map[Currency]decimal.Decimal)}
}

// Balance returns the available balance for a currency, zero when unknown.
func (a Account) Balance(c Currency) decimal.Decimal {
	if a.Balances == nil {
		return decimal.Zero
	}
	if v, ok := a.Balances[c]; ok {
		return v
	}
	return decimal.Zero
}

func (a Account) Zero() bool {
	return a.UpdatedAt.IsZero()
}

// OrderUpdate is the normalized answer to an order status query.
type OrderUpdate struct {
	Status        OrderStatus
	FilledSize    decimal.Decimal
	ExecutedValue decimal.Decimal
	UpdatedAt     time.Time
}

// OrderAck is the normalized answer to a successful order placement.
type OrderAck struct {
	ID            string
	Status        OrderStatus
	FilledSize    decimal.Decimal
	ExecutedValue decimal.Decimal
}

func normalizeCurrency(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		ch := id[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			out = append(out, ch)
		}
	}
	return string(out)
}
