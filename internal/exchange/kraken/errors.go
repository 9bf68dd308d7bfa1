package kraken

import (
	"errors"
	"strings"

	"cryptrade/internal/core"
)

type APIError struct {
	Messages []string
}

func (e APIError) Error() string {
	return "kraken api error: " + strings.Join(e.Messages, "; ")
}

// Kraken error strings carry a severity prefix (E/W) and a category, e.g.
// "EOrder:Unknown order". Substring matching keeps the table short.
var apiErrorKinds = []struct {
	fragment string
	kind     error
}{
	{"EAPI:Invalid key", core.ErrAuthentication},
	{"EAPI:Invalid signature", core.ErrAuthentication},
	{"EAPI:Invalid nonce", core.ErrAuthentication},
	{"EGeneral:Permission denied", core.ErrAuthentication},
	{"EOrder:Unknown order", core.ErrOrderNotFound},
	{"EOrder:Insufficient funds", core.ErrInsufficientBalance},
	{"EQuery:Unknown asset pair", core.ErrUnsupportedProduct},
	{"EGeneral:Invalid arguments", core.ErrInvalidParameter},
}

func classifyAPIError(messages []string) error {
	apiErr := APIError{Messages: messages}
	kinds := make([]error, 0, 2)
	for _, msg := range messages {
		for _, entry := range apiErrorKinds {
			if strings.Contains(msg, entry.fragment) {
				kinds = appendErrorKind(kinds, entry.kind)
			}
		}
	}
	if len(kinds) == 0 {
		return apiErr
	}
	return errors.Join(append([]error{error(apiErr)}, kinds...)...)
}

func appendErrorKind(kinds []error, kind error) []error {
	for _, existing := range kinds {
		if existing == kind {
			return kinds
		}
	}
	return append(kinds, kind)
}
