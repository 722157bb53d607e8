package kite

import (
	"errors"
	"fmt"
)

// Error types reported by the API in the error_type field.
const (
	TokenException   = "TokenException"
	InputException   = "InputException"
	GeneralException = "GeneralException"
	DataException    = "DataException"
)

// ErrMissingCredentials is returned when the API key or secret is not set.
var ErrMissingCredentials = errors.New("kite api key or secret not configured")

// APIError is a non-success envelope returned by the API.
type APIError struct {
	HTTPStatus int
	ErrorType  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kite: %s (http %d): %s", e.ErrorType, e.HTTPStatus, e.Message)
}

// IsTokenError reports whether err means the access token was rejected,
// expired or revoked upstream.
func IsTokenError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorType == TokenException
}
