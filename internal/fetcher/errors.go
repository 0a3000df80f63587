package fetcher

import (
	"errors"
	"fmt"
)

// ErrorType classifies page fetch failures.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeTimeout     ErrorType = "timeout"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeUnexpected  ErrorType = "unexpected"
)

// FetchError is a classified page fetch failure.
type FetchError struct {
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("fetch %s: %s for %s", e.Type, e.Cause, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Retryable reports whether another attempt may succeed.
func (e *FetchError) Retryable() bool {
	switch e.Type {
	case ErrTypeRateLimited, ErrTypeTimeout, ErrTypeUpstream, ErrTypeNetwork:
		return true
	case ErrTypeForbidden, ErrTypeNotFound, ErrTypeGone, ErrTypeUnexpected:
		return false
	}
	return false
}

// HTTP status code boundaries for classification.
const (
	statusForbidden       = 403
	statusNotFound        = 404
	statusRequestTimeout  = 408
	statusGone            = 410
	statusTooManyRequests = 429
	statusServerErrorLow  = 500
	statusServerErrorHigh = 599
)

// ClassifyHTTPStatus creates a FetchError from an HTTP status code.
func ClassifyHTTPStatus(statusCode int, url string) *FetchError {
	fe := &FetchError{StatusCode: statusCode, URL: url, Cause: fmt.Errorf("HTTP %d", statusCode)}

	switch {
	case statusCode == statusTooManyRequests:
		fe.Type = ErrTypeRateLimited
	case statusCode == statusForbidden:
		fe.Type = ErrTypeForbidden
	case statusCode == statusNotFound:
		fe.Type = ErrTypeNotFound
	case statusCode == statusGone:
		fe.Type = ErrTypeGone
	case statusCode == statusRequestTimeout:
		fe.Type = ErrTypeTimeout
	case statusCode >= statusServerErrorLow && statusCode <= statusServerErrorHigh:
		fe.Type = ErrTypeUpstream
	default:
		fe.Type = ErrTypeUnexpected
	}

	return fe
}

// ClassifyNetworkError creates a FetchError for transport failures (DNS, refused, timeout).
func ClassifyNetworkError(cause error, url string) *FetchError {
	return &FetchError{Type: ErrTypeNetwork, URL: url, Cause: cause}
}

// TypeOf returns the classification of err, or "" when err is not a FetchError.
func TypeOf(err error) ErrorType {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ""
}
