package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"cryptrade/internal/alert"
	"cryptrade/internal/config"
	"cryptrade/internal/core"
	"cryptrade/internal/exchange"
	"cryptrade/internal/exchange/paper"
	"cryptrade/internal/logging"
	"cryptrade/internal/store"
	"cryptrade/internal/trader"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "config yaml path")
	flag.Parse()

	// Optional .env for credential overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}
	level, _ := logging.ParseLevel(string(cfg.Verbosity))
	logger := logging.New(level, log.Default())

	alerts := buildAlertManager(cfg, logger)
	if alerts != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := alerts.Close(closeCtx); err != nil {
				fmt.Fprintf(os.Stderr, "close alert manager failed: %v\n", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trading := core.NewCurrency(cfg.TradingCurrency)
	buying := core.NewCurrency(cfg.BuyingCurrency)

	var ex exchange.Exchange
	if cfg.DryRun {
		ex = buildPaperExchange(ctx, cfg, trading, buying)
	} else {
		// Two bots on the same account would trade against each other.
		lock, err := store.AcquireInstanceLock(".")
		if err != nil {
			fatal(err.Error())
		}
		defer func() {
			if err := lock.Release(); err != nil {
				fmt.Fprintf(os.Stderr, "release instance lock failed: %v\n", err)
			}
		}()

		creds, err := config.LoadCredentials(cfg.CredentialsPath)
		if err != nil {
			fatal(err.Error())
		}
		creds.ApplyEnvOverrides(os.LookupEnv)
		ex, err = exchange.Open(cfg.Exchange, creds)
		if err != nil {
			fatal(err.Error())
		}
	}

	product, err := ex.GetProduct(ctx, trading, buying)
	if err != nil {
		fatal(err.Error())
	}
	logger.Basic("session_started", map[string]string{
		"exchange": ex.Name(),
		"product":  product.String(),
		"dry_run":  fmt.Sprintf("%t", cfg.DryRun),
	})

	t := trader.New(trader.Options{
		Exchange:        ex,
		Product:         product,
		Logger:          logger,
		Alerter:         alerts,
		Delta:           cfg.DeltaFraction(),
		BasicAmount:     cfg.BasicAmount.Decimal,
		BasicUnits:      cfg.BasicUnits,
		LowPrice:        cfg.LowPrice.Decimal,
		HighPrice:       cfg.HighPrice.Decimal,
		AllowEmptyOrder: cfg.AllowEmptyOrder,
		PollInterval:    time.Duration(cfg.PollIntervalSec) * time.Second,
		SingleOrderWait: time.Duration(cfg.SingleOrderSec) * time.Second,
	})
	result := t.Run(ctx)
	fmt.Printf("trading result: %s %s (buys=%d sells=%d fees=%s)\n",
		result.Net().StringFixed(2),
		buying,
		result.Buying.Number(),
		result.Selling.Number(),
		result.Buying.TotalFee().Add(result.Selling.TotalFee()).StringFixed(2),
	)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func buildAlertManager(cfg config.Config, logger *logging.Logger) *alert.Manager {
	tg := cfg.Alerts.Telegram
	if !tg.Enabled {
		return nil
	}
	notifier := alert.NewTelegramNotifier(
		tg.BotToken,
		tg.ChatID,
		tg.APIBaseURL,
		time.Duration(tg.TimeoutSec)*time.Second,
	)
	if notifier == nil {
		return nil
	}
	productID := cfg.TradingCurrency + "-" + cfg.BuyingCurrency
	return alert.NewManager(cfg.Exchange, productID, notifier, logger)
}

// buildPaperExchange seeds an in-memory venue and drives its ticker with a
// slow random walk so a dry run exercises the whole loop without touching a
// real exchange.
func buildPaperExchange(ctx context.Context, cfg config.Config, trading, buying core.Currency) *paper.Exchange {
	product, err := core.NewProduct(trading, buying, trading.String()+"-"+buying.String())
	if err != nil {
		fatal(err.Error())
	}
	product.PriceTick = decimal.New(1, -2)
	product.AmountStep = decimal.New(1, -6)
	product.MinPrice = product.PriceTick
	product.MinAmount = product.AmountStep
	product.MinNotional = decimal.New(1, 0)

	start := cfg.LowPrice.Add(cfg.HighPrice.Decimal).Div(decimal.NewFromInt(2))
	if start.Sign() <= 0 {
		start = decimal.NewFromInt(100)
	}
	units := decimal.NewFromInt(cfg.BasicUnits).Mul(cfg.BasicAmount.Decimal)
	ex := paper.New(paper.Options{
		Product: product,
		Balances: map[core.Currency]decimal.Decimal{
			trading: units.Mul(decimal.NewFromInt(10)),
			buying:  start.Mul(units).Mul(decimal.NewFromInt(10)),
		},
	})

	go func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		price := start
		spread := price.Mul(decimal.New(1, -3))
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			step := decimal.NewFromFloat((rng.Float64() - 0.5) * 0.004)
			price = price.Mul(decimal.NewFromInt(1).Add(step))
			half := spread.Div(decimal.NewFromInt(2))
			ex.SetTicker(core.Ticker{
				Bid:  price.Sub(half),
				Ask:  price.Add(half),
				Last: price,
				Time: time.Now(),
			})
		}
	}()
	return ex
}
