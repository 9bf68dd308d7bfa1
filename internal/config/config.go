package config

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"cryptrade/internal/core"
)

type Verbosity string

const (
	VerbosityOff      Verbosity = "off"
	VerbosityBasic    Verbosity = "basic"
	VerbosityDetailed Verbosity = "detailed"
)

type Config struct {
	Exchange        string    `yaml:"exchange"`
	TradingCurrency string    `yaml:"trading_currency"`
	BuyingCurrency  string    `yaml:"buying_currency"`
	Delta           Decimal   `yaml:"delta"`
	BasicAmount     Decimal   `yaml:"basic_amount"`
	BasicUnits      int64     `yaml:"basic_units"`
	LowPrice        Decimal   `yaml:"low_price"`
	HighPrice       Decimal   `yaml:"high_price"`
	AllowEmptyOrder bool      `yaml:"allow_empty_order"`
	PollIntervalSec int64     `yaml:"poll_interval_sec"`
	SingleOrderSec  int64     `yaml:"single_order_wait_sec"`
	DryRun          bool      `yaml:"dry_run"`
	Verbosity       Verbosity `yaml:"verbosity"`
	CredentialsPath string    `yaml:"credentials_path"`

	Alerts AlertConfig `yaml:"alerts"`
}

type AlertConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id"`
	APIBaseURL string `yaml:"api_base_url"`
	TimeoutSec int64  `yaml:"timeout_sec"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("%w: config must contain a single YAML document", core.ErrInvalidParameter)
		}
		return Config{}, fmt.Errorf("%w: %v", core.ErrInvalidParameter, err)
	}
	cfg.normalize()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Exchange = strings.ToLower(strings.TrimSpace(c.Exchange))
	c.TradingCurrency = strings.ToUpper(strings.TrimSpace(c.TradingCurrency))
	c.BuyingCurrency = strings.ToUpper(strings.TrimSpace(c.BuyingCurrency))
	c.Verbosity = Verbosity(strings.ToLower(strings.TrimSpace(string(c.Verbosity))))
	c.CredentialsPath = strings.TrimSpace(c.CredentialsPath)
	c.Alerts.Telegram.BotToken = strings.TrimSpace(c.Alerts.Telegram.BotToken)
	c.Alerts.Telegram.ChatID = strings.TrimSpace(c.Alerts.Telegram.ChatID)
	c.Alerts.Telegram.APIBaseURL = strings.TrimSpace(c.Alerts.Telegram.APIBaseURL)
}

func (c *Config) applyDefaults() {
	if c.BuyingCurrency == "" {
		c.BuyingCurrency = "EUR"
	}
	if c.BasicUnits == 0 {
		c.BasicUnits = 1
	}
	if c.HighPrice.Cmp(decimal.Zero) == 0 {
		c.HighPrice = Decimal{decimal.NewFromInt(1000000)}
	}
	if c.PollIntervalSec == 0 {
		c.PollIntervalSec = 15
	}
	if c.SingleOrderSec == 0 {
		c.SingleOrderSec = 7200
	}
	if c.Verbosity == "" {
		c.Verbosity = VerbosityBasic
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = "credentials.json"
	}
	if c.Alerts.Telegram.APIBaseURL == "" {
		c.Alerts.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if c.Alerts.Telegram.TimeoutSec == 0 {
		c.Alerts.Telegram.TimeoutSec = 10
	}
}

func (c Config) Validate() error {
	if c.Exchange == "" {
		return fmt.Errorf("%w: exchange is required", core.ErrInvalidParameter)
	}
	if c.TradingCurrency == "" {
		return fmt.Errorf("%w: trading_currency is required", core.ErrInvalidParameter)
	}
	if c.TradingCurrency == c.BuyingCurrency {
		return fmt.Errorf("%w: trading_currency and buying_currency cannot be the same", core.ErrInvalidParameter)
	}
	hundred := decimal.NewFromInt(100)
	if c.Delta.Cmp(decimal.Zero) <= 0 || c.Delta.Cmp(hundred) >= 0 {
		return fmt.Errorf("%w: delta must be between 0 and 100 percent", core.ErrInvalidParameter)
	}
	if c.BasicAmount.Cmp(decimal.Zero) <= 0 {
		return fmt.Errorf("%w: basic_amount must be > 0", core.ErrInvalidParameter)
	}
	if c.BasicUnits < 1 {
		return fmt.Errorf("%w: basic_units must be >= 1", core.ErrInvalidParameter)
	}
	if c.LowPrice.Cmp(decimal.Zero) < 0 {
		return fmt.Errorf("%w: low_price cannot be negative", core.ErrInvalidParameter)
	}
	if c.HighPrice.Cmp(c.LowPrice.Decimal) < 0 {
		return fmt.Errorf("%w: high_price must be higher than low_price", core.ErrInvalidParameter)
	}
	if c.PollIntervalSec < 1 || c.PollIntervalSec > 3600 {
		return fmt.Errorf("%w: poll_interval_sec must be between 1 and 3600", core.ErrInvalidParameter)
	}
	if c.SingleOrderSec < c.PollIntervalSec {
		return fmt.Errorf("%w: single_order_wait_sec must be >= poll_interval_sec", core.ErrInvalidParameter)
	}
	switch c.Verbosity {
	case VerbosityOff, VerbosityBasic, VerbosityDetailed:
	default:
		return fmt.Errorf("%w: verbosity must be off, basic, or detailed", core.ErrInvalidParameter)
	}
	if c.Alerts.Telegram.Enabled {
		if c.Alerts.Telegram.BotToken == "" || c.Alerts.Telegram.ChatID == "" {
			return fmt.Errorf("%w: telegram bot_token and chat_id are required when alerts enabled", core.ErrInvalidParameter)
		}
		if c.Alerts.Telegram.TimeoutSec < 1 || c.Alerts.Telegram.TimeoutSec > 120 {
			return fmt.Errorf("%w: telegram timeout_sec must be between 1 and 120", core.ErrInvalidParameter)
		}
		if err := validateURL(c.Alerts.Telegram.APIBaseURL, "http", "https"); err != nil {
			return fmt.Errorf("%w: telegram api_base_url %v", core.ErrInvalidParameter, err)
		}
	}
	return nil
}

// DeltaFraction converts the configured percentage into the fraction applied
// to bid/ask when computing order prices.
func (c Config) DeltaFraction() decimal.Decimal {
	return c.Delta.Div(decimal.NewFromInt(100))
}

func validateURL(raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("must include scheme and host")
	}
	for _, s := range schemes {
		if parsed.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be %s", strings.Join(schemes, " or "))
}
