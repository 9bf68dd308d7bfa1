package trader

import (
	"github.com/shopspring/decimal"
)

// Transactions accumulates settled fills for one side of the book. Totals only
// ever grow; there is no reset for the lifetime of a session.
type Transactions struct {
	name     string
	fee      decimal.Decimal
	number   int
	amount   decimal.Decimal
	value    decimal.Decimal
	totalFee decimal.Decimal
}

// NewTransactions configures an accumulator with the fee rate charged on each
// recorded execution value.
func NewTransactions(name string, fee decimal.Decimal) *Transactions {
	return &Transactions{name: name, fee: fee}
}

// Add records one fill at the configured fee rate.
func (t *Transactions) Add(amount, value decimal.Decimal) {
	t.AddAtFee(amount, value, t.fee)
}

// AddAtFee records one fill, charging fee on the executed value instead of the
// configured rate.
func (t *Transactions) AddAtFee(amount, value, fee decimal.Decimal) {
	t.number++
	t.amount = t.amount.Add(amount)
	t.value = t.value.Add(value)
	if fee.Sign() > 0 {
		t.totalFee = t.totalFee.Add(value.Mul(fee))
	}
}

func (t *Transactions) Name() string              { return t.name }
func (t *Transactions) Number() int               { return t.number }
func (t *Transactions) Amount() decimal.Decimal   { return t.amount }
func (t *Transactions) Value() decimal.Decimal    { return t.value }
func (t *Transactions) TotalFee() decimal.Decimal { return t.totalFee }

// Fields flattens the running totals for structured logging.
func (t *Transactions) Fields() map[string]string {
	return map[string]string{
		"name":      t.name,
		"number":    decimal.NewFromInt(int64(t.number)).String(),
		"amount":    t.amount.String(),
		"value":     t.value.String(),
		"total_fee": t.totalFee.String(),
	}
}
