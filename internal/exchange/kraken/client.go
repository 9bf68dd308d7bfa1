// Package kraken implements the trade client for the Kraken REST API.
package kraken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"cryptrade/internal/core"
)

const defaultBaseURL = "https://api.kraken.com"

var (
	makerFee = decimal.NewFromFloat(0.0016)
	takerFee = decimal.NewFromFloat(0.0026)
)

type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	nonce      func() int64
}

type Options struct {
	APIKey         string
	APISecret      string
	BaseURL        string
	HTTPTimeoutSec int64
}

func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.APISecret == "" {
		return nil, fmt.Errorf("%w: kraken api_key/api_secret required", core.ErrAuthentication)
	}
	if _, err := base64.StdEncoding.DecodeString(opts.APISecret); err != nil {
		return nil, fmt.Errorf("%w: kraken api_secret is not valid base64", core.ErrAuthentication)
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
		// Kraken counts API calls against a small rolling budget; one call
		// per second keeps the counter from ever tripping.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		nonce:   func() int64 { return time.Now().UnixNano() },
	}, nil
}

func (c *Client) Name() string { return "kraken" }

func (c *Client) MakerFee() decimal.Decimal { return makerFee }
func (c *Client) TakerFee() decimal.Decimal { return takerFee }

func (c *Client) GetProduct(ctx context.Context, trading, buying core.Currency) (core.Product, error) {
	pair := NativePair(trading, buying)
	product, err := core.NewProduct(trading, buying, pair)
	if err != nil {
		return core.Product{}, err
	}
	params := url.Values{}
	params.Set("pair", pair)
	body, err := c.doPublic(ctx, "AssetPairs", params)
	if err != nil {
		return core.Product{}, fmt.Errorf("%w: kraken pair %s: %v", core.ErrUnsupportedProduct, pair, err)
	}
	var result map[string]assetPairInfo
	if err := json.Unmarshal(body, &result); err != nil {
		return core.Product{}, err
	}
	if len(result) == 0 {
		return core.Product{}, fmt.Errorf("%w: kraken pair %s not found", core.ErrUnsupportedProduct, pair)
	}
	for _, info := range result {
		product.AmountStep = powerOfTen(-info.LotDecimals)
		product.PriceTick = powerOfTen(-info.PairDecimals)
		product.MinPrice = product.PriceTick
		product.MinAmount = product.AmountStep
		if info.OrderMin != "" {
			if v, err := decimal.NewFromString(info.OrderMin); err == nil && v.Sign() > 0 {
				product.MinAmount = v
			}
		}
		product.MinNotional = product.MinAmount.Mul(product.MinPrice)
	}
	return product, nil
}

func (c *Client) GetTicker(ctx context.Context, product core.Product) (core.Ticker, error) {
	params := url.Values{}
	params.Set("pair", product.ID)
	body, err := c.doPublic(ctx, "Ticker", params)
	if err != nil {
		return core.Ticker{}, err
	}
	var result map[string]tickerInfo
	if err := json.Unmarshal(body, &result); err != nil {
		return core.Ticker{}, err
	}
	tick := core.Ticker{}
	for _, info := range result {
		if len(info.Bid) == 0 || len(info.Ask) == 0 || len(info.Last) == 0 {
			return core.Ticker{}, fmt.Errorf("kraken ticker for %s is incomplete", product.ID)
		}
		bid, err := decimal.NewFromString(info.Bid[0])
		if err != nil {
			return core.Ticker{}, fmt.Errorf("kraken ticker bid: %w", err)
		}
		ask, err := decimal.NewFromString(info.Ask[0])
		if err != nil {
			return core.Ticker{}, fmt.Errorf("kraken ticker ask: %w", err)
		}
		last, err := decimal.NewFromString(info.Last[0])
		if err != nil {
			return core.Ticker{}, fmt.Errorf("kraken ticker last: %w", err)
		}
		tick = core.Ticker{Bid: bid, Ask: ask, Last: last, Time: time.Now()}
	}
	if tick.Zero() {
		return core.Ticker{}, fmt.Errorf("kraken ticker for %s is empty", product.ID)
	}
	return tick, nil
}

func (c *Client) GetBalances(ctx context.Context) (core.Account, error) {
	body, err := c.doPrivate(ctx, "Balance", url.Values{})
	if err != nil {
		return core.Account{}, err
	}
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		return core.Account{}, err
	}
	account := core.NewAccount()
	for native, balance := range result {
		v, err := decimal.NewFromString(balance)
		if err != nil {
			continue
		}
		account.Balances[GenericCurrency(native)] = v
	}
	return account, nil
}

func (c *Client) PlaceLimitOrder(ctx context.Context, product core.Product, side core.Side, price, amount decimal.Decimal) (core.OrderAck, error) {
	params := url.Values{}
	params.Set("pair", product.ID)
	params.Set("type", strings.ToLower(string(side)))
	params.Set("ordertype", "limit")
	params.Set("price", price.String())
	params.Set("volume", amount.String())
	body, err := c.doPrivate(ctx, "AddOrder", params)
	if err != nil {
		return core.OrderAck{}, err
	}
	var result addOrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return core.OrderAck{}, err
	}
	if len(result.TxIDs) == 0 {
		return core.OrderAck{}, fmt.Errorf("%w: kraken returned no transaction id", core.ErrOrderRejected)
	}
	return core.OrderAck{ID: result.TxIDs[0], Status: core.OrderCreated}, nil
}

func (c *Client) OrderStatus(ctx context.Context, product core.Product, orderID string) (core.OrderUpdate, error) {
	params := url.Values{}
	params.Set("txid", orderID)
	body, err := c.doPrivate(ctx, "QueryOrders", params)
	if err != nil {
		return core.OrderUpdate{}, err
	}
	var result map[string]orderInfo
	if err := json.Unmarshal(body, &result); err != nil {
		return core.OrderUpdate{}, err
	}
	info, ok := result[orderID]
	if !ok {
		return core.OrderUpdate{}, fmt.Errorf("%w: kraken order %s", core.ErrOrderNotFound, orderID)
	}
	update := core.OrderUpdate{Status: mapOrderStatus(info.Status), UpdatedAt: time.Now()}
	filled, err := decimal.NewFromString(info.VolExec)
	if err == nil {
		update.FilledSize = filled
	}
	// Kraken reports the cumulative cost directly; average price times
	// executed volume is the fallback for older responses.
	if v, err := decimal.NewFromString(info.Cost); err == nil && v.Sign() > 0 {
		update.ExecutedValue = v
	} else if v, err := decimal.NewFromString(info.Price); err == nil {
		update.ExecutedValue = filled.Mul(v)
	}
	return update, nil
}

func (c *Client) CancelOrder(ctx context.Context, product core.Product, orderID string) error {
	params := url.Values{}
	params.Set("txid", orderID)
	_, err := c.doPrivate(ctx, "CancelOrder", params)
	if err != nil && errors.Is(err, core.ErrOrderNotFound) {
		return nil
	}
	return err
}

func mapOrderStatus(v string) core.OrderStatus {
	switch v {
	case "pending":
		return core.OrderCreated
	case "open":
		return core.OrderOpen
	case "closed":
		return core.OrderFilled
	case "canceled":
		return core.OrderCanceled
	case "expired":
		return core.OrderExpired
	default:
		return core.OrderOpen
	}
}

func powerOfTen(exp int32) decimal.Decimal {
	return decimal.New(1, exp)
}

func (c *Client) doPublic(ctx context.Context, method string, params url.Values) ([]byte, error) {
	urlStr := c.baseURL + "/0/public/" + method
	if encoded := params.Encode(); encoded != "" {
		urlStr += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, req)
}

func (c *Client) doPrivate(ctx context.Context, method string, params url.Values) ([]byte, error) {
	path := "/0/private/" + method
	params.Set("nonce", strconv.FormatInt(c.nonce(), 10))
	postData := params.Encode()
	signature, err := c.sign(path, params.Get("nonce"), postData)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(postData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("API-Sign", signature)
	return c.send(ctx, req)
}

// send runs the request and unwraps Kraken's {error: [...], result: {...}}
// envelope, returning the raw result payload.
func (c *Client) send(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
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
		return nil, fmt.Errorf("kraken http error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var envelope struct {
		Error  []string        `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Error) > 0 {
		return nil, classifyAPIError(envelope.Error)
	}
	return envelope.Result, nil
}

// sign produces the API-Sign header: base64(hmac-sha512(secret,
// path + sha256(nonce + postdata))) keyed with the base64-decoded secret.
func (c *Client) sign(path, nonce, postData string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("%w: kraken api_secret is not valid base64", core.ErrAuthentication)
	}
	digest := sha256.Sum256([]byte(nonce + postData))
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
