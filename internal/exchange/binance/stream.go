package binance

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

const defaultStreamURL = "wss://stream.binance.com:9443/ws"

// TickerStream subscribes to the public best bid/ask stream for one symbol.
// It is an alternative market-data source to polling GetTicker and needs no
// credentials.
type TickerStream struct {
	conn *websocket.Conn
}

type bookTickerEvent struct {
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// NewTickerStream dials the combined stream endpoint for <symbol>@bookTicker.
// streamURL may be empty to use the production endpoint.
func NewTickerStream(ctx context.Context, streamURL, symbol string) (*TickerStream, error) {
	base := strings.TrimRight(streamURL, "/")
	if base == "" {
		base = defaultStreamURL
	}
	endpoint := base + "/" + strings.ToLower(symbol) + "@bookTicker"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return &TickerStream{conn: conn}, nil
}

func (s *TickerStream) Close() error {
	return s.conn.Close()
}

// Tickers delivers one core.Ticker per stream event until the context ends or
// the connection drops. The stream has no last-trade price, so Last carries
// the bid/ask midpoint.
func (s *TickerStream) Tickers(ctx context.Context) (<-chan core.Ticker, <-chan error) {
	tickers := make(chan core.Ticker)
	errCh := make(chan error, 1)

	readTimeout := 45 * time.Second
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go func() {
		defer close(tickers)
		defer s.conn.Close()

		for {
			_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			var msg bookTickerEvent
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			bid, err := decimal.NewFromString(msg.BidPrice)
			if err != nil {
				continue
			}
			ask, err := decimal.NewFromString(msg.AskPrice)
			if err != nil {
				continue
			}
			if bid.Sign() <= 0 || ask.Sign() <= 0 {
				continue
			}
			tick := core.Ticker{
				Bid:  bid,
				Ask:  ask,
				Last: bid.Add(ask).Div(decimal.NewFromInt(2)),
				Time: time.Now(),
			}
			select {
			case tickers <- tick:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	return tickers, errCh
}
