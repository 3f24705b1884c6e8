package orchestration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed handler request.
type ErrorKind string

const (
	KindRateLimited      ErrorKind = "rate_limited"
	KindCreditsExhausted ErrorKind = "credits_exhausted"
	KindFailed           ErrorKind = "failed"
)

// RequestError is a terminal failure of a handler invocation. StatusCode is
// zero when the request never got a response.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("handler request %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("handler request %s: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// statusError maps a non-2xx runtime response to a RequestError.
func statusError(status int, body string) *RequestError {
	kind := KindFailed
	switch status {
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusPaymentRequired:
		kind = KindCreditsExhausted
	}
	if body == "" {
		body = http.StatusText(status)
	}
	return &RequestError{Kind: kind, StatusCode: status, Message: body}
}

// transportError wraps a failure that produced no response.
func transportError(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return &RequestError{Kind: KindFailed, Message: err.Error(), Err: err}
}

// ErrorKindOf names err for telemetry and metrics.
func ErrorKindOf(err error) string {
	var reqErr *RequestError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &reqErr):
		return string(reqErr.Kind)
	default:
		return string(KindFailed)
	}
}
