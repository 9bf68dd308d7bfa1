package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cryptrade/internal/core"
)

// Credentials holds one API credential set per exchange name.
type Credentials map[string]ExchangeCredentials

type ExchangeCredentials struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	// APIPass is only required by exchanges with a passphrase (Coinbase).
	APIPass string `json:"api_pass,omitempty"`
}

func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", core.ErrInvalidParameter, err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", core.ErrInvalidParameter, err)
	}
	normalized := make(Credentials, len(creds))
	for name, c := range creds {
		normalized[strings.ToLower(strings.TrimSpace(name))] = c
	}
	return normalized, nil
}

// For returns the credential set for an exchange. requirePass additionally
// demands a passphrase.
func (c Credentials) For(exchange string, requirePass bool) (ExchangeCredentials, error) {
	creds, ok := c[strings.ToLower(exchange)]
	if !ok {
		return ExchangeCredentials{}, fmt.Errorf("%w: no credentials for exchange %q", core.ErrInvalidParameter, exchange)
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return ExchangeCredentials{}, fmt.Errorf("%w: incomplete credentials for exchange %q", core.ErrInvalidParameter, exchange)
	}
	if requirePass && creds.APIPass == "" {
		return ExchangeCredentials{}, fmt.Errorf("%w: exchange %q requires api_pass", core.ErrInvalidParameter, exchange)
	}
	return creds, nil
}

// ApplyEnvOverrides lets CRYPTRADE_<EXCHANGE>_API_KEY style variables replace
// file-based credentials, so secrets can stay out of the JSON file entirely.
func (c Credentials) ApplyEnvOverrides(lookup func(string) (string, bool)) {
	for name, creds := range c {
		prefix := "CRYPTRADE_" + strings.ToUpper(name) + "_"
		if v, ok := lookup(prefix + "API_KEY"); ok && v != "" {
			creds.APIKey = v
		}
		if v, ok := lookup(prefix + "API_SECRET"); ok && v != "" {
			creds.APISecret = v
		}
		if v, ok := lookup(prefix + "API_PASS"); ok && v != "" {
			creds.APIPass = v
		}
		c[name] = creds
	}
}
