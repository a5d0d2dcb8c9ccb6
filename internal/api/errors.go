package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed attempt
type ErrorKind int

const (
	// KindPermanent failures are not retried
	KindPermanent ErrorKind = iota
	// KindRateLimited means the remote asked us to slow down
	KindRateLimited
	// KindTransient covers network errors, timeouts and 5xx responses
	KindTransient
	// KindAuth means the credentials were rejected
	KindAuth
	// KindInvalidRequest means the remote refused the request as malformed or blocked
	KindInvalidRequest
	// KindCanceled means the caller gave up
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindInvalidRequest:
		return "invalid_request"
	case KindCanceled:
		return "canceled"
	default:
		return "permanent"
	}
}

// Retryable reports whether another attempt may succeed
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// Sentinels matched with errors.Is against any classified error
var (
	ErrRateLimited    = errors.New("rate limited")
	ErrTransient      = errors.New("transient network failure")
	ErrAuth           = errors.New("authentication failed")
	ErrInvalidRequest = errors.New("invalid request")
	ErrPermanent      = errors.New("permanent failure")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindRateLimited:
		return ErrRateLimited
	case KindTransient:
		return ErrTransient
	case KindAuth:
		return ErrAuth
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindCanceled:
		return context.Canceled
	default:
		return ErrPermanent
	}
}

// APIError is the classified outcome of one failed attempt
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil && !strings.Contains(msg, e.Err.Error()) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *APIError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// RateLimitError is returned when every attempt was throttled
type RateLimitError struct {
	Attempts int
	Last     error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("still rate-limited after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RateLimitError) Unwrap() error {
	return e.Last
}

// TransientNetworkError is returned when every attempt failed to connect or timed out
type TransientNetworkError struct {
	Attempts int
	Last     error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("network unreachable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Last
}

// KindOf classifies err. Unclassified errors are permanent, except
// cancellation and raw network errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindPermanent
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindPermanent
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// RetryableStatusCodes are HTTP status codes that are retried
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,     // 429 - Rate limited
	http.StatusServiceUnavailable,  // 503 - Service unavailable
	http.StatusGatewayTimeout,      // 504 - Gateway timeout
	http.StatusBadGateway,          // 502 - Bad gateway
	http.StatusInternalServerError, // 500 - Internal server error (transient)
	http.StatusRequestTimeout,      // 408 - Request timeout
}

// ShouldRetryAPICall checks if the status code indicates the call should be retried
func ShouldRetryAPICall(statusCode int) bool {
	for _, code := range RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// ClassifyStatus maps an HTTP status and error message to a kind.
// Gemini reports a bad key as 400 INVALID_ARGUMENT, so the message is checked too.
func ClassifyStatus(statusCode int, message string) ErrorKind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case ShouldRetryAPICall(statusCode):
		return KindTransient
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return KindAuth
	case statusCode == http.StatusBadRequest && mentionsAPIKey(message):
		return KindAuth
	case statusCode >= 400 && statusCode < 500:
		return KindInvalidRequest
	default:
		return KindPermanent
	}
}

func mentionsAPIKey(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "api key") || strings.Contains(lower, "api_key_invalid")
}
