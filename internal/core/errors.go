package core

import "errors"

var (
	// ErrAuthentication indicates the exchange rejected the configured credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrUnsupportedProduct indicates the pair is unknown to the exchange or its
	// instrument metadata could not be fetched.
	ErrUnsupportedProduct = errors.New("unsupported product")
	// ErrInvalidParameter indicates malformed configuration.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrOrderNotFound indicates the order does not exist on the exchange.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderRejected indicates the exchange refused the order.
	ErrOrderRejected = errors.New("order rejected")
	// ErrInsufficientBalance indicates the exchange refused the action due to
	// insufficient funds.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
