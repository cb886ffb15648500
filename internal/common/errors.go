package common

import "errors"

// Local validation failures.
var (
	ErrInsufficientEntropy = errors.New("insufficient entropy")
	ErrInvalidSecretCount  = errors.New("invalid secret count")
	ErrMalformedQuote      = errors.New("malformed quote")
	ErrInvalidParams       = errors.New("invalid order parameters")
)

// Failures reported by, or on the way to, the remote API.
var (
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetwork            = errors.New("network error")
	ErrSubmissionRejected = errors.New("submission rejected")
	ErrOrderNotFound      = errors.New("order not found")
)

var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrSecretUnknown = errors.New("no secret stored for order")
)
