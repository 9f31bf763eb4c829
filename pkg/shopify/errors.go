package shopify

import (
	"errors"
	"fmt"
	"net/http"
)

// Configuration and argument errors. These are returned before any network
// I/O and indicate a programming mistake on the caller's side.
var (
	ErrInvalidConfig     = errors.New("invalid client configuration")
	ErrContractViolation = errors.New("contract violation")
)

// Signature verification outcomes. ErrSignatureMissing, ErrPayloadMissing and
// ErrSecretNotConfigured mean the check could not run; ErrSignatureMismatch
// means it ran and failed.
var (
	ErrSignatureMissing    = errors.New("signature missing")
	ErrPayloadMissing      = errors.New("payload missing")
	ErrSecretNotConfigured = errors.New("api secret not configured")
	ErrSignatureMismatch   = errors.New("signature mismatch")
)

// Token exchange errors.
var (
	ErrCodeNotFound     = errors.New("cannot extract authorization code")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNoToken          = errors.New("token exchange returned no token")
)

// RawResponse is the unprocessed HTTP response metadata of an API call.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// TransportError wraps a failure reported by the HTTP collaborator.
// Response is set when a response was received before the failure.
type TransportError struct {
	Err      error
	Response *RawResponse
}

func (e *TransportError) Error() string {
	return "shopify transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is returned when a success response body is not valid JSON.
type ParseError struct {
	Err      error
	Response *RawResponse
}

func (e *ParseError) Error() string {
	return "parsing shopify response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// APIError is returned for every response status outside 200, 201 and 204.
// Message holds the raw response body.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Response   *RawResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d %s)", e.Message, e.StatusCode, e.Status)
}

func newAPIError(raw *RawResponse) *APIError {
	return &APIError{
		StatusCode: raw.StatusCode,
		Status:     http.StatusText(raw.StatusCode),
		Message:    string(raw.Body),
		Response:   raw,
	}
}

func contractErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}
