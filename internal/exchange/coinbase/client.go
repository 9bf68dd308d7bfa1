// Package coinbase implements the trade client for the Coinbase Exchange API.
package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"cryptrade/internal/core"
)

const defaultBaseURL = "https://api.exchange.coinbase.com"

var (
	makerFee = decimal.NewFromFloat(0.005)
	takerFee = decimal.NewFromFloat(0.005)
)

type Client struct {
	apiKey     string
	apiSecret  string
	apiPass    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Options struct {
	APIKey         string
	APISecret      string
	APIPass        string
	BaseURL        string
	HTTPTimeoutSec int64
}

// NewClient validates the credential triple up front. The secret must be the
// base64-encoded signing key the exchange issues.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.APISecret == "" || opts.APIPass == "" {
		return nil, fmt.Errorf("%w: coinbase api_key/api_secret/api_pass required", core.ErrAuthentication)
	}
	if _, err := base64.StdEncoding.DecodeString(opts.APISecret); err != nil {
		return nil, fmt.Errorf("%w: coinbase api_secret is not valid base64", core.ErrAuthentication)
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
		apiPass:    opts.APIPass,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		// Public endpoints allow 10 req/s, private 15 req/s.
		limiter: rate.NewLimiter(rate.Every(150*time.Millisecond), 5),
	}, nil
}

func (c *Client) Name() string { return "coinbase" }

func (c *Client) MakerFee() decimal.Decimal { return makerFee }
func (c *Client) TakerFee() decimal.Decimal { return takerFee }

func (c *Client) GetProduct(ctx context.Context, trading, buying core.Currency) (core.Product, error) {
	product, err := core.NewProduct(trading, buying, trading.String()+"-"+buying.String())
	if err != nil {
		return core.Product{}, err
	}
	body, err := c.doRequest(ctx, http.MethodGet, "/products/"+product.ID, nil, false)
	if err != nil {
		return core.Product{}, fmt.Errorf("%w: coinbase product %s: %v", core.ErrUnsupportedProduct, product.ID, err)
	}
	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Product{}, err
	}
	if v, err := decimal.NewFromString(resp.BaseMinSize); err == nil {
		product.MinAmount = v
	}
	if v, err := decimal.NewFromString(resp.QuoteIncrement); err == nil {
		product.MinPrice = v
		product.PriceTick = v
		product.MinNotional = v
	}
	if v, err := decimal.NewFromString(resp.BaseIncrement); err == nil {
		product.AmountStep = v
	}
	return product, nil
}

func (c *Client) GetTicker(ctx context.Context, product core.Product) (core.Ticker, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/products/"+product.ID+"/ticker", nil, false)
	if err != nil {
		return core.Ticker{}, err
	}
	var resp tickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Ticker{}, err
	}
	if resp.TradeID == 0 {
		return core.Ticker{}, fmt.Errorf("coinbase ticker for %s has no trades", product.ID)
	}
	bid, err := decimal.NewFromString(resp.Bid)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("coinbase ticker bid: %w", err)
	}
	ask, err := decimal.NewFromString(resp.Ask)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("coinbase ticker ask: %w", err)
	}
	last, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("coinbase ticker price: %w", err)
	}
	return core.Ticker{Bid: bid, Ask: ask, Last: last, Time: time.Now()}, nil
}

func (c *Client) GetBalances(ctx context.Context) (core.Account, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/accounts", nil, true)
	if err != nil {
		return core.Account{}, err
	}
	var resp []accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Account{}, err
	}
	account := core.NewAccount()
	for _, sub := range resp {
		available, err := decimal.NewFromString(sub.Available)
		if err != nil {
			continue
		}
		account.Balances[core.NewCurrency(sub.Currency)] = available
	}
	return account, nil
}

func (c *Client) PlaceLimitOrder(ctx context.Context, product core.Product, side core.Side, price, amount decimal.Decimal) (core.OrderAck, error) {
	reqBody := orderRequest{
		Type:        "limit",
		Side:        strings.ToLower(string(side)),
		ProductID:   product.ID,
		Price:       price.String(),
		Size:        amount.String(),
		TimeInForce: "GTC",
		ClientOID:   uuid.NewString(),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return core.OrderAck{}, err
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/orders", payload, true)
	if err != nil {
		return core.OrderAck{}, err
	}
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.OrderAck{}, err
	}
	if resp.ID == "" {
		return core.OrderAck{}, fmt.Errorf("%w: coinbase returned no order id", core.ErrOrderRejected)
	}
	ack := core.OrderAck{ID: resp.ID, Status: mapOrderStatus(resp.Status, resp.Settled)}
	if v, err := decimal.NewFromString(resp.FilledSize); err == nil {
		ack.FilledSize = v
	}
	if v, err := decimal.NewFromString(resp.ExecutedValue); err == nil {
		ack.ExecutedValue = v
	}
	return ack, nil
}

func (c *Client) OrderStatus(ctx context.Context, product core.Product, orderID string) (core.OrderUpdate, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/orders/"+orderID, nil, true)
	if err != nil {
		return core.OrderUpdate{}, err
	}
	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.OrderUpdate{}, err
	}
	update := core.OrderUpdate{
		Status:    mapOrderStatus(resp.Status, resp.Settled),
		UpdatedAt: time.Now(),
	}
	if v, err := decimal.NewFromString(resp.FilledSize); err == nil {
		update.FilledSize = v
	}
	if v, err := decimal.NewFromString(resp.ExecutedValue); err == nil {
		update.ExecutedValue = v
	}
	return update, nil
}

func (c *Client) CancelOrder(ctx context.Context, product core.Product, orderID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/orders/"+orderID, nil, true)
	if err != nil && errors.Is(err, core.ErrOrderNotFound) {
		return nil
	}
	return err
}

func mapOrderStatus(status string, settled bool) core.OrderStatus {
	switch status {
	case "open", "pending", "active", "received":
		if settled {
			return core.OrderFilled
		}
		return core.OrderOpen
	case "done":
		if settled {
			return core.OrderFilled
		}
		return core.OrderCanceled
	case "rejected":
		return core.OrderRejected
	default:
		return core.OrderOpen
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte, signed bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var reader io.Reader
	if len(payload) > 0 {
		reader = strings.NewReader(string(payload))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature, err := c.sign(timestamp, method, path, payload)
		if err != nil {
			return nil, err
		}
		req.Header.Set("CB-ACCESS-KEY", c.apiKey)
		req.Header.Set("CB-ACCESS-SIGN", signature)
		req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
		req.Header.Set("CB-ACCESS-PASSPHRASE", c.apiPass)
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

// sign produces the CB-ACCESS-SIGN header: base64(hmac-sha256(key,
// timestamp+method+path+body)) keyed with the base64-decoded secret.
func (c *Client) sign(timestamp, method, path string, payload []byte) (string, error) {
	key, err := base64.StdEncoding.DecodeString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("%w: coinbase api_secret is not valid base64", core.ErrAuthentication)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp + method + path))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
