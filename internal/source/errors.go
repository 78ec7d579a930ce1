package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// ErrorKind classifies a failed MineContext call.
type ErrorKind string

// Error kinds, named as they are reported to MCP and HTTP callers.
const (
	KindUnavailable ErrorKind = "MineContextUnavailable"
	KindTimeout     ErrorKind = "Timeout"
	KindHTTP        ErrorKind = "HttpError"
	KindInvalidJSON ErrorKind = "InvalidJSON"
)

// Error is a classified MineContext failure.
type Error struct {
	Kind    ErrorKind
	Section string
	Err     error
}

func (e *Error) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("minecontext: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("minecontext %s: %s: %v", e.Section, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "unexpected status " + e.Status
}

// Classify maps err onto an ErrorKind. Errors that are already classified
// keep their kind.
func Classify(err error) ErrorKind {
	var srcErr *Error
	if errors.As(err, &srcErr) {
		return srcErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindInvalidJSON
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindUnavailable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnavailable
	}
	return KindHTTP
}

// retryable reports whether a failed request is worth repeating: transport
// failures and 5xx responses are, client errors and bad payloads are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
