// Command tickermonitor watches a trading pair on one or more exchanges and
// prints rolling window statistics (high/low/average) for each.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cryptrade/internal/config"
	"cryptrade/internal/core"
	"cryptrade/internal/exchange"
	"cryptrade/internal/exchange/binance"
	"cryptrade/internal/logging"
	"cryptrade/internal/monitor"
)

func main() {
	var (
		exchangesFlag   string
		tradingFlag     string
		buyingFlag      string
		credentialsPath string
		interval        time.Duration
		window          time.Duration
		useStream       bool
	)
	flag.StringVar(&exchangesFlag, "exchanges", "kraken", "comma-separated exchange names")
	flag.StringVar(&tradingFlag, "trading", "BTC", "trading currency")
	flag.StringVar(&buyingFlag, "buying", "EUR", "buying currency")
	flag.StringVar(&credentialsPath, "credentials", "credentials.json", "credentials json path")
	flag.DurationVar(&interval, "interval", 30*time.Second, "poll and report interval")
	flag.DurationVar(&window, "window", 10*time.Minute, "statistics window")
	flag.BoolVar(&useStream, "stream", false, "use the binance websocket stream instead of polling")
	flag.Parse()

	_ = godotenv.Load()

	logger := logging.New(logging.Basic, log.Default())
	creds, err := config.LoadCredentials(credentialsPath)
	if err != nil {
		fatal(err.Error())
	}
	creds.ApplyEnvOverrides(os.LookupEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trading := core.NewCurrency(tradingFlag)
	buying := core.NewCurrency(buyingFlag)

	var wg sync.WaitGroup
	for _, name := range strings.Split(exchangesFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ex, err := exchange.Open(name, creds)
		if err != nil {
			fatal(err.Error())
		}
		product, err := ex.GetProduct(ctx, trading, buying)
		if err != nil {
			fatal(err.Error())
		}
		wg.Add(1)
		go func(ex exchange.Exchange, product core.Product) {
			defer wg.Done()
			watch(ctx, ex, product, interval, window, useStream, logger)
		}(ex, product)
	}
	wg.Wait()
}

func watch(ctx context.Context, ex exchange.Exchange, product core.Product, interval, window time.Duration, useStream bool, logger *logging.Logger) {
	ticks, cleanup, err := tickerFeed(ctx, ex, product, interval, useStream, logger)
	if err != nil {
		logger.Error("feed_failed", map[string]string{"exchange": ex.Name(), "error": err.Error()})
		return
	}
	defer cleanup()

	win := monitor.NewTickerWindow(window)
	report := time.NewTicker(interval)
	defer report.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			win.Add(tick)
		case <-report.C:
			high, low, average, ok := win.Stats()
			if !ok {
				continue
			}
			logger.Basic("ticker_window", map[string]string{
				"exchange": ex.Name(),
				"product":  product.String(),
				"period":   win.Period().Truncate(time.Second).String(),
				"high":     high.String(),
				"low":      low.String(),
				"average":  average.StringFixed(4),
			})
		}
	}
}

// tickerFeed picks the market-data source: the shared polling producer, or
// Binance's public websocket stream when asked for.
func tickerFeed(ctx context.Context, ex exchange.Exchange, product core.Product, interval time.Duration, useStream bool, logger *logging.Logger) (<-chan core.Ticker, func(), error) {
	if useStream && ex.Name() == "binance" {
		stream, err := binance.NewTickerStream(ctx, "", product.ID)
		if err != nil {
			return nil, nil, err
		}
		ticks, errCh := stream.Tickers(ctx)
		go func() {
			if err, ok := <-errCh; ok && err != nil {
				logger.Error("stream_failed", map[string]string{"exchange": ex.Name(), "error": err.Error()})
			}
		}()
		return ticks, func() { _ = stream.Close() }, nil
	}
	producer := monitor.NewProducer(ex, product, interval, logger)
	return producer.Run(ctx), func() {}, nil
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
