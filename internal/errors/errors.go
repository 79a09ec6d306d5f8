// Package errors provides the error taxonomy for the crawler.
//
// Every per-URL failure is contained at the URL level: callers log the
// categorized error and move on. Only startup failures (output directory,
// configuration) may abort a run.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// PolicyFetch means robots.txt was unreachable or unparsable; the host
	// degrades to a permissive policy.
	PolicyFetch
	// RendererUnavailable means no live renderer session could be obtained.
	RendererUnavailable
	// Render means navigation, timeout, or protocol failure during an
	// otherwise-available session.
	Render
	// Extraction means malformed HTML yielded partial output. Never fatal.
	Extraction
	// Cancelled represents context cancellation or a user interrupt.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case PolicyFetch:
		return "policy_fetch"
	case RendererUnavailable:
		return "renderer_unavailable"
	case Render:
		return "render"
	case Extraction:
		return "extraction"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrNoRenderer is returned by the renderer pool when no live session exists
// and recreation attempts have been exhausted.
var ErrNoRenderer = errors.New("no live renderer session available")

// CrawlError is a categorized crawl failure tied to one URL.
type CrawlError struct {
	Type      ErrorType
	URL       string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %v", e.Type, e.Operation, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s", e.Type, e.Operation, e.URL)
}

// Unwrap returns the underlying error.
func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// Is matches CrawlErrors by type.
func (e *CrawlError) Is(target error) bool {
	t, ok := target.(*CrawlError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a CrawlError.
func New(errType ErrorType, url, operation string, cause error) *CrawlError {
	return &CrawlError{Type: errType, URL: url, Operation: operation, Cause: cause}
}

// NewPolicyFetch creates a robots policy fetch error.
func NewPolicyFetch(host string, cause error) *CrawlError {
	return New(PolicyFetch, "https://"+host+"/robots.txt", "robots_fetch", cause)
}

// NewRendererUnavailable creates a renderer-unavailable error.
func NewRendererUnavailable(url string) *CrawlError {
	return New(RendererUnavailable, url, "fetch", ErrNoRenderer)
}

// NewRender creates a render failure.
func NewRender(url string, cause error) *CrawlError {
	return New(Render, url, "render", cause)
}

// Categorize wraps a generic error in a CrawlError with a best-effort type.
func Categorize(err error, url string) *CrawlError {
	if err == nil {
		return nil
	}

	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return New(Cancelled, url, "fetch", err)
	}
	if errors.Is(err, ErrNoRenderer) {
		return NewRendererUnavailable(url)
	}
	if isTransport(err) {
		return NewRender(url, err)
	}
	return New(Unknown, url, "fetch", err)
}

// GetType extracts the error type from an error chain.
func GetType(err error) ErrorType {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type
	}
	return Unknown
}

// isTransport reports whether an error is a network or protocol failure.
func isTransport(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "websocket") ||
		strings.Contains(msg, "cdp")
}
