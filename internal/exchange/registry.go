package exchange

import (
	"fmt"

	"cryptrade/internal/config"
	"cryptrade/internal/core"
	"cryptrade/internal/exchange/binance"
	"cryptrade/internal/exchange/coinbase"
	"cryptrade/internal/exchange/kraken"
)

// Open constructs the trade client for a named exchange. Unknown names and
// missing credentials are fatal configuration errors.
func Open(name string, creds config.Credentials) (Exchange, error) {
	switch name {
	case "binance":
		c, err := creds.For("binance", false)
		if err != nil {
			return nil, err
		}
		return binance.NewClient(binance.Options{APIKey: c.APIKey, APISecret: c.APISecret})
	case "coinbase":
		c, err := creds.For("coinbase", true)
		if err != nil {
			return nil, err
		}
		return coinbase.NewClient(coinbase.Options{APIKey: c.APIKey, APISecret: c.APISecret, APIPass: c.APIPass})
	case "kraken":
		c, err := creds.For("kraken", false)
		if err != nil {
			return nil, err
		}
		return kraken.NewClient(kraken.Options{APIKey: c.APIKey, APISecret: c.APISecret})
	default:
		return nil, fmt.Errorf("%w: exchange %q unknown or unsupported", core.ErrInvalidParameter, name)
	}
}
