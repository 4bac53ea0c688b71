package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these so the orchestration
// layer and the HTTP handler can branch on the failure kind with errors.Is.
var (
	// Request-level taxonomy
	ErrUnauthorized     = errors.New("unauthorized")
	ErrParse            = errors.New("invalid alert payload")
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrInvalidVolume    = errors.New("invalid order volume")
	ErrOrderRejected    = errors.New("order rejected by exchange")
	ErrRateLimited      = errors.New("request rate limited")
	ErrTransport        = errors.New("exchange transport failure")

	// General Errors
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Exchange Specific Errors
	ErrExchangeRejected     = errors.New("exchange returned an error")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
)
