package kraken

import (
	"testing"

	"cryptrade/internal/core"
)

func cur(v string) core.Currency { return core.NewCurrency(v) }

func TestNativeCurrency(t *testing.T) {
	cases := []struct {
		generic string
		native  string
	}{
		{"BTC", "XXBT"},
		{"EUR", "ZEUR"},
		{"USD", "ZUSD"},
		{"ETH", "XETH"},
		{"ADA", "ADA"}, // unmapped codes pass through
	}
	for _, tc := range cases {
		if got := NativeCurrency(cur(tc.generic)); got != tc.native {
			t.Fatalf("NativeCurrency(%s) = %s, want %s", tc.generic, got, tc.native)
		}
	}
}

func TestGenericCurrencyRoundTrip(t *testing.T) {
	for generic, native := range currencyMap {
		if got := GenericCurrency(native); got.String() != generic {
			t.Fatalf("GenericCurrency(%s) = %s, want %s", native, got, generic)
		}
	}
	if got := GenericCurrency("SOL"); got.String() != "SOL" {
		t.Fatalf("unmapped native code should pass through, got %s", got)
	}
}

func TestNativePair(t *testing.T) {
	cases := []struct {
		trading string
		buying  string
		want    string
	}{
		{"BTC", "EUR", "XXBTZEUR"},  // explicit table entry
		{"ETH", "USD", "XETHZUSD"},  // explicit table entry
		{"ADA", "BTC", "ADAXBT"},    // table beats naive XXBT concatenation
		{"XTZ", "BTC", "XTZXBT"},    // table strips the asset prefix
		{"SOL", "EUR", "SOLZEUR"},   // fallback: native concatenation
		{"SOL", "USDT", "SOLUSDT"},  // fallback with two unmapped codes
	}
	for _, tc := range cases {
		if got := NativePair(cur(tc.trading), cur(tc.buying)); got != tc.want {
			t.Fatalf("NativePair(%s, %s) = %s, want %s", tc.trading, tc.buying, got, tc.want)
		}
	}
}
