package coinbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cryptrade/internal/core"
)

type APIError struct {
	Status int
	Msg    string
}

func (e APIError) Error() string {
	return fmt.Sprintf("coinbase api error %d: %s", e.Status, e.Msg)
}

var apiErrorMessageKinds = map[string]error{
	"notfound":           core.ErrOrderNotFound,
	"order not found":    core.ErrOrderNotFound,
	"insufficient funds": core.ErrInsufficientBalance,
	"invalid api key":    core.ErrAuthentication,
	"invalid passphrase": core.ErrAuthentication,
	"invalid signature":  core.ErrAuthentication,
}

func parseAPIError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	apiErr := APIError{Status: status, Msg: msg}

	kinds := make([]error, 0, 2)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kinds = append(kinds, core.ErrAuthentication)
	}
	if kind, ok := apiErrorMessageKinds[strings.ToLower(msg)]; ok {
		kinds = append(kinds, kind)
	} else if status == http.StatusNotFound {
		kinds = append(kinds, core.ErrOrderNotFound)
	}
	if len(kinds) == 0 {
		return apiErr
	}
	return errors.Join(append([]error{error(apiErr)}, kinds...)...)
}
