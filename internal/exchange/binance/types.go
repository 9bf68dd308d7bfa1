package binance

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type APIError struct {
	Code int
	Msg  string
}

func (e APIError) Error() string {
	return "binance api error " + strconv.Itoa(e.Code) + ": " + e.Msg
}

type orderResponse struct {
	Symbol             string `json:"symbol"`
	OrderID            int64  `json:"orderId"`
	Price              string `json:"price"`
	OrigQty            string `json:"origQty"`
	ExecutedQty        string `json:"executedQty"`
	CumulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status             string `json:"status"`
}

type orderQueryResponse struct {
	Symbol             string `json:"symbol"`
	OrderID            int64  `json:"orderId"`
	ClientOrderID      string `json:"clientOrderId"`
	Price              string `json:"price"`
	OrigQty            string `json:"origQty"`
	ExecutedQty        string `json:"executedQty"`
	CumulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status             string `json:"status"`
	Side               string `json:"side"`
	Type               string `json:"type"`
	Time               int64  `json:"time"`
	UpdateTime         int64  `json:"updateTime"`
}

type tickerResponse struct {
	Symbol    string `json:"symbol"`
	BidPrice  string `json:"bidPrice"`
	AskPrice  string `json:"askPrice"`
	LastPrice string `json:"lastPrice"`
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

type exchangeInfoResponse struct {
	Symbols []symbolInfoResponse `json:"symbols"`
}

type symbolInfoResponse struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Filters    []struct {
		FilterType  string `json:"filterType"`
		MinQty      string `json:"minQty"`
		StepSize    string `json:"stepSize"`
		MinNotional string `json:"minNotional"`
		MinPrice    string `json:"minPrice"`
		TickSize    string `json:"tickSize"`
	} `json:"filters"`
}

type symbolInfo struct {
	baseAsset   string
	quoteAsset  string
	minQty      decimal.Decimal
	stepSize    decimal.Decimal
	minPrice    decimal.Decimal
	tickSize    decimal.Decimal
	minNotional decimal.Decimal
}

func parseSymbolInfo(src symbolInfoResponse) symbolInfo {
	info := symbolInfo{baseAsset: src.BaseAsset, quoteAsset: src.QuoteAsset}
	for _, f := range src.Filters {
		switch f.FilterType {
		case "LOT_SIZE":
			if v, err := decimal.NewFromString(f.MinQty); err == nil {
				info.minQty = v
			}
			if v, err := decimal.NewFromString(f.StepSize); err == nil {
				info.stepSize = v
			}
		case "PRICE_FILTER":
			// minPrice is a separate bound and can sit above the tick.
			if v, err := decimal.NewFromString(f.MinPrice); err == nil {
				info.minPrice = v
			}
			if v, err := decimal.NewFromString(f.TickSize); err == nil {
				info.tickSize = v
			}
		case "MIN_NOTIONAL", "NOTIONAL":
			if v, err := decimal.NewFromString(f.MinNotional); err == nil {
				// If both MIN_NOTIONAL and NOTIONAL are present, keep the stricter minimum.
				if v.Cmp(info.minNotional) > 0 {
					info.minNotional = v
				}
			}
		}
	}
	return info
}
