// Package common defines shared constants and sentinel errors used across
// kitekeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// ErrConfig reports missing or invalid broker credentials and settings.
	ErrConfig = errors.New("configuration error")

	// ErrUpstreamAuth reports a rejected request-token exchange.
	ErrUpstreamAuth = errors.New("upstream login failed")

	// ErrUpstream reports a failed broker data call.
	ErrUpstream = errors.New("upstream error")

	// ErrStorage reports an unreachable or failing token store.
	ErrStorage = errors.New("storage error")

	// ErrNotAuthenticated means no valid access token is available.
	ErrNotAuthenticated = errors.New("not authenticated")

	// Login state errors.
	ErrInvalidState = errors.New("invalid login state")
	ErrTokenExpired = errors.New("token expired")
)
