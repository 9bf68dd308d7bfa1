package trader

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransactionsAccumulate(t *testing.T) {
	tr := NewTransactions("sell", mustDec("0.005"))
	tr.Add(mustDec("0.02"), mustDec("2.00"))

	if tr.Number() != 1 {
		t.Fatalf("number = %d, want 1", tr.Number())
	}
	if tr.Amount().Cmp(mustDec("0.02")) != 0 {
		t.Fatalf("amount = %s, want 0.02", tr.Amount())
	}
	if tr.Value().Cmp(mustDec("2.00")) != 0 {
		t.Fatalf("value = %s, want 2.00", tr.Value())
	}
	if tr.TotalFee().Cmp(mustDec("0.01")) != 0 {
		t.Fatalf("total fee = %s, want 0.01", tr.TotalFee())
	}

	tr.Add(mustDec("0.01"), mustDec("1.00"))
	if tr.Number() != 2 {
		t.Fatalf("number = %d, want 2", tr.Number())
	}
	if tr.TotalFee().Cmp(mustDec("0.015")) != 0 {
		t.Fatalf("total fee = %s, want 0.015", tr.TotalFee())
	}
}

func TestTransactionsFeeOverride(t *testing.T) {
	tr := NewTransactions("buy", mustDec("0.005"))
	tr.AddAtFee(mustDec("1"), mustDec("100"), mustDec("0.001"))
	if tr.TotalFee().Cmp(mustDec("0.1")) != 0 {
		t.Fatalf("total fee = %s, want 0.1", tr.TotalFee())
	}
}

func TestTransactionsZeroFeeRate(t *testing.T) {
	tr := NewTransactions("buy", decimal.Zero)
	tr.Add(mustDec("1"), mustDec("100"))
	if !tr.TotalFee().IsZero() {
		t.Fatalf("total fee = %s, want 0", tr.TotalFee())
	}
}
