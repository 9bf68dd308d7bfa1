// Package binance implements the trade client for the Binance spot API.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"cryptrade/internal/core"
)

type AuthType int

const (
	AuthNone AuthType = iota
	AuthSigned
)

const defaultBaseURL = "https://api.binance.com"

var (
	makerFee = decimal.NewFromFloat(0.001)
	takerFee = decimal.NewFromFloat(0.002)
)

type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	symbolCache map[string]symbolInfo
}

type Options struct {
	APIKey         string
	APISecret      string
	BaseURL        string
	HTTPTimeoutSec int64
}

func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.APISecret == "" {
		return nil, fmt.Errorf("%w: binance api_key/api_secret required", core.ErrAuthentication)
	}
	timeout := 15 * time.Second
	if opts.HTTPTimeoutSec > 0 {
		timeout = time.Duration(opts.HTTPTimeoutSec) * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		// Binance allows 1200 request weight per minute; stay well under it.
		limiter:     rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		symbolCache: make(map[string]symbolInfo),
	}, nil
}

func (c *Client) Name() string { return "binance" }

func (c *Client) MakerFee() decimal.Decimal { return makerFee }
func (c *Client) TakerFee() decimal.Decimal { return takerFee }

func (c *Client) GetProduct(ctx context.Context, trading, buying core.Currency) (core.Product, error) {
	product, err := core.NewProduct(trading, buying, trading.String()+buying.String())
	if err != nil {
		return core.Product{}, err
	}
	info, err := c.getSymbolInfo(ctx, product.ID)
	if err != nil {
		return core.Product{}, fmt.Errorf("%w: binance symbol %s: %v", core.ErrUnsupportedProduct, product.ID, err)
	}
	product.MinAmount = info.minQty
	product.MinPrice = info.minPrice
	if product.MinPrice.Sign() == 0 {
		product.MinPrice = info.tickSize
	}
	product.MinNotional = info.minNotional
	product.PriceTick = info.tickSize
	product.AmountStep = info.stepSize
	return product, nil
}

func (c *Client) GetTicker(ctx context.Context, product core.Product) (core.Ticker, error) {
	params := url.Values{}
	params.Set("symbol", product.ID)
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/ticker/24hr", params, AuthNone)
	if err != nil {
		return core.Ticker{}, err
	}
	var resp tickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Ticker{}, err
	}
	bid, err := decimal.NewFromString(resp.BidPrice)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("binance ticker bid: %w", err)
	}
	ask, err := decimal.NewFromString(resp.AskPrice)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("binance ticker ask: %w", err)
	}
	last, err := decimal.NewFromString(resp.LastPrice)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("binance ticker last: %w", err)
	}
	return core.Ticker{Bid: bid, Ask: ask, Last: last, Time: time.Now()}, nil
}

func (c *Client) GetBalances(ctx context.Context) (core.Account, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/account", url.Values{}, AuthSigned)
	if err != nil {
		return core.Account{}, err
	}
	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Account{}, err
	}
	account := core.NewAccount()
	for _, b := range resp.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			continue
		}
		account.Balances[core.NewCurrency(b.Asset)] = free
	}
	return account, nil
}

func (c *Client) PlaceLimitOrder(ctx context.Context, product core.Product, side core.Side, price, amount decimal.Decimal) (core.OrderAck, error) {
	params := url.Values{}
	params.Set("symbol", product.ID)
	params.Set("side", string(side))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", amount.String())
	params.Set("price", price.String())
	params.Set("newClientOrderId", "ct-"+uuid.NewString())
	body, err := c.doRequest(ctx, http.MethodPost, "/api/v3/order", params, AuthSigned)
	if err != nil {
		return core.OrderAck{}, err
	}
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.OrderAck{}, err
	}
	ack := core.OrderAck{
		ID:     strconv.FormatInt(resp.OrderID, 10),
		Status: mapOrderStatus(resp.Status),
	}
	if v, err := decimal.NewFromString(resp.ExecutedQty); err == nil {
		ack.FilledSize = v
	}
	if v, err := decimal.NewFromString(resp.CumulativeQuoteQty); err == nil {
		ack.ExecutedValue = v
	}
	return ack, nil
}

func (c *Client) OrderStatus(ctx context.Context, product core.Product, orderID string) (core.OrderUpdate, error) {
	params := url.Values{}
	params.Set("symbol", product.ID)
	params.Set("orderId", orderID)
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/order", params, AuthSigned)
	if err != nil {
		return core.OrderUpdate{}, err
	}
	var resp orderQueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.OrderUpdate{}, err
	}
	update := core.OrderUpdate{Status: mapOrderStatus(resp.Status), UpdatedAt: time.Now()}
	if v, err := decimal.NewFromString(resp.ExecutedQty); err == nil {
		update.FilledSize = v
	}
	if v, err := decimal.NewFromString(resp.CumulativeQuoteQty); err == nil {
		update.ExecutedValue = v
	}
	if resp.UpdateTime > 0 {
		update.UpdatedAt = time.UnixMilli(resp.UpdateTime)
	}
	return update, nil
}

func (c *Client) CancelOrder(ctx context.Context, product core.Product, orderID string) error {
	params := url.Values{}
	params.Set("symbol", product.ID)
	params.Set("orderId", orderID)
	_, err := c.doRequest(ctx, http.MethodDelete, "/api/v3/order", params, AuthSigned)
	if err != nil && errors.Is(err, core.ErrOrderNotFound) {
		return nil
	}
	return err
}

func mapOrderStatus(v string) core.OrderStatus {
	switch v {
	case "NEW", "PARTIALLY_FILLED":
		return core.OrderOpen
	case "FILLED":
		return core.OrderFilled
	case "CANCELED", "PENDING_CANCEL":
		return core.OrderCanceled
	case "EXPIRED", "EXPIRED_IN_MATCH":
		return core.OrderExpired
	case "REJECTED":
		return core.OrderRejected
	default:
		return core.OrderOpen
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, auth AuthType) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if auth == AuthSigned {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("signature", sign(c.apiSecret, params.Encode()))
	}
	var (
		req *http.Request
		err error
	)
	urlStr := c.baseURL + path
	if method == http.MethodGet || method == http.MethodDelete {
		if encoded := params.Encode(); encoded != "" {
			urlStr += "?" + encoded
		}
		req, err = http.NewRequestWithContext(ctx, method, urlStr, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, urlStr, strings.NewReader(params.Encode()))
	}
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet && method != http.MethodDelete {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if auth == AuthSigned {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func parseAPIError(status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
		return wrapAPIError(apiErr.Code, apiErr.Msg)
	}
	return fmt.Errorf("binance http error %d: %s", status, strings.TrimSpace(string(body)))
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) getSymbolInfo(ctx context.Context, symbol string) (symbolInfo, error) {
	c.mu.Lock()
	if info, ok := c.symbolCache[symbol]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := c.doRequest(ctx, http.MethodGet, "/api/v3/exchangeInfo", params, AuthNone)
	if err != nil {
		return symbolInfo{}, err
	}
	var resp exchangeInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return symbolInfo{}, err
	}
	if len(resp.Symbols) == 0 {
		return symbolInfo{}, errors.New("symbol not found")
	}
	info := parseSymbolInfo(resp.Symbols[0])
	c.mu.Lock()
	c.symbolCache[symbol] = info
	c.mu.Unlock()
	return info, nil
}
