package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindAuthentication
	KindRateLimit
	KindTimeout
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "network"
	}
}

// UserVisible reports whether failures of this kind should reach the user.
// Timeouts and network errors happen during normal jitter and are only logged.
func (k ErrorKind) UserVisible() bool {
	return k == KindAuthentication || k == KindRateLimit
}

// Error is a classified provider failure.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Provider != "" {
		prefix = e.Provider + " " + prefix
	}
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("%s (status %d)", prefix, e.StatusCode)
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a fixed kind.
func NewError(kind ErrorKind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// Malformed reports an unusable response body.
func Malformed(provider, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedResponse, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// Classify maps any error onto the failure taxonomy. Already-classified
// errors keep their kind; SDK errors are classified by HTTP status; anything
// else falls back to message heuristics and finally to KindNetwork.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNetwork
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return kindForStatus(anthropicErr.StatusCode)
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return kindForStatus(openaiErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	return kindForMessage(err.Error())
}

// Wrap classifies err and attaches the provider name. Context cancellation is
// passed through untouched so callers can tell an abort from a failure.
func Wrap(provider string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	e := &Error{Kind: Classify(err), Provider: provider, Err: err}
	var anthropicErr *anthropic.Error
	var openaiErr *openai.Error
	switch {
	case errors.As(err, &anthropicErr):
		e.StatusCode = anthropicErr.StatusCode
	case errors.As(err, &openaiErr):
		e.StatusCode = openaiErr.StatusCode
	}
	return e
}

// StatusError builds a classified error from a raw HTTP response status.
func StatusError(provider string, status int, header http.Header, body string) *Error {
	e := &Error{
		Kind:       kindForStatus(status),
		Provider:   provider,
		StatusCode: status,
		Err:        errors.New(strings.TrimSpace(body)),
	}
	if status == http.StatusTooManyRequests && header != nil {
		if secs := header.Get("Retry-After"); secs != "" {
			if d, err := time.ParseDuration(secs + "s"); err == nil {
				e.RetryAfter = d
			}
		}
	}
	return e
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindNetwork
	}
}

func kindForMessage(msg string) ErrorKind {
	s := strings.ToLower(msg)

	if strings.Contains(s, "401") ||
		strings.Contains(s, "403") ||
		strings.Contains(s, "unauthorized") ||
		strings.Contains(s, "permission denied") ||
		strings.Contains(s, "invalid api key") ||
		strings.Contains(s, "api key not valid") ||
		strings.Contains(s, "unauthenticated") {
		return KindAuthentication
	}

	if strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "resource_exhausted") ||
		strings.Contains(s, "quota") {
		return KindRateLimit
	}

	if strings.Contains(s, "timeout") ||
		strings.Contains(s, "deadline exceeded") {
		return KindTimeout
	}

	return KindNetwork
}
