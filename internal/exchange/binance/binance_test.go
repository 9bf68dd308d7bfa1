package binance

import (
	"errors"
	"testing"

	"cryptrade/internal/core"
)

func TestParseSymbolInfoFilters(t *testing.T) {
	src := symbolInfoResponse{
		Symbol:     "BTCEUR",
		BaseAsset:  "BTC",
		QuoteAsset: "EUR",
	}
	src.Filters = []struct {
		FilterType  string `json:"filterType"`
		MinQty      string `json:"minQty"`
		StepSize    string `json:"stepSize"`
		MinNotional string `json:"minNotional"`
		MinPrice    string `json:"minPrice"`
		TickSize    string `json:"tickSize"`
	}{
		{FilterType: "PRICE_FILTER", MinPrice: "0.05", TickSize: "0.01"},
		{FilterType: "LOT_SIZE", MinQty: "0.00001", StepSize: "0.00001"},
		{FilterType: "MIN_NOTIONAL", MinNotional: "5"},
		{FilterType: "NOTIONAL", MinNotional: "10"},
		{FilterType: "ICEBERG_PARTS"}, // unknown filters are ignored
	}

	info := parseSymbolInfo(src)
	if info.baseAsset != "BTC" || info.quoteAsset != "EUR" {
		t.Fatalf("assets = %s/%s", info.baseAsset, info.quoteAsset)
	}
	if info.tickSize.String() != "0.01" {
		t.Fatalf("tick size = %s, want 0.01", info.tickSize)
	}
	// The price floor is its own field and may exceed the tick.
	if info.minPrice.String() != "0.05" {
		t.Fatalf("min price = %s, want 0.05", info.minPrice)
	}
	if info.minQty.String() != "0.00001" || info.stepSize.String() != "0.00001" {
		t.Fatalf("lot size = %s/%s", info.minQty, info.stepSize)
	}
	// The stricter of MIN_NOTIONAL and NOTIONAL wins.
	if info.minNotional.String() != "10" {
		t.Fatalf("min notional = %s, want 10", info.minNotional)
	}
}

func TestClassifyAPIErrorByCode(t *testing.T) {
	cases := []struct {
		code int
		msg  string
		want error
	}{
		{apiCodeInvalidSignature, "Signature for this request is not valid.", core.ErrAuthentication},
		{apiCodeBadAPIKey, "API-key format invalid.", core.ErrAuthentication},
		{apiCodeRejectedAPIKey, "Invalid API-key, IP, or permissions for action.", core.ErrAuthentication},
		{apiCodeOrderNotFound, "Order does not exist.", core.ErrOrderNotFound},
		{apiCodeCancelRejected, "Unknown order sent.", core.ErrOrderNotFound},
		{apiCodeNewOrderRejected, "Account has insufficient balance for requested action.", core.ErrInsufficientBalance},
		{apiCodeNewOrderRejected, "Stop price would trigger immediately.", core.ErrOrderRejected},
	}
	for _, tc := range cases {
		err := wrapAPIError(tc.code, tc.msg)
		if !errors.Is(err, tc.want) {
			t.Fatalf("code %d %q classified as %v, want %v", tc.code, tc.msg, err, tc.want)
		}
	}
}

func TestClassifyAPIErrorKeepsAPIError(t *testing.T) {
	err := wrapAPIError(apiCodeOrderNotFound, "Order does not exist.")
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("classified error should still carry the api error")
	}
	if apiErr.Code != apiCodeOrderNotFound {
		t.Fatalf("code = %d, want %d", apiErr.Code, apiCodeOrderNotFound)
	}
	if !IsAPIErrorCode(err, apiCodeOrderNotFound) {
		t.Fatalf("IsAPIErrorCode should match the wrapped code")
	}
	if IsAPIErrorCode(err, apiCodeBadAPIKey) {
		t.Fatalf("IsAPIErrorCode matched the wrong code")
	}
}

func TestClassifyAPIErrorUnknownCodePassesThrough(t *testing.T) {
	err := wrapAPIError(-1000, "An unknown error occurred while processing the request.")
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("unclassified error should be the api error itself")
	}
	if errors.Is(err, core.ErrOrderNotFound) || errors.Is(err, core.ErrAuthentication) {
		t.Fatalf("unknown code must not map to a kind: %v", err)
	}
}

func TestMapOrderStatus(t *testing.T) {
	cases := []struct {
		venue string
		want  core.OrderStatus
	}{
		{"NEW", core.OrderOpen},
		{"PARTIALLY_FILLED", core.OrderOpen},
		{"FILLED", core.OrderFilled},
		{"CANCELED", core.OrderCanceled},
		{"PENDING_CANCEL", core.OrderCanceled},
		{"EXPIRED", core.OrderExpired},
		{"EXPIRED_IN_MATCH", core.OrderExpired},
		{"REJECTED", core.OrderRejected},
	}
	for _, tc := range cases {
		if got := mapOrderStatus(tc.venue); got != tc.want {
			t.Fatalf("mapOrderStatus(%s) = %s, want %s", tc.venue, got, tc.want)
		}
	}
}
