package domain

import (
	"errors"
	"net/http"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind classifies why a usage request could not be satisfied. The values
// double as the stable error codes exposed on the wire.
type ErrorKind string

const (
	KindUsageLimitExceeded ErrorKind = "USAGE_LIMIT_EXCEEDED"
	KindPlanRestriction    ErrorKind = "PLAN_RESTRICTION"
	KindProviderError      ErrorKind = "PROVIDER_ERROR"
	KindSystemError        ErrorKind = "SYSTEM_ERROR"
)

// HTTPStatus maps the kind to its transport status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindUsageLimitExceeded:
		return http.StatusTooManyRequests
	case KindPlanRestriction:
		return http.StatusForbidden
	case KindProviderError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether an immediate or short-delay retry can succeed.
// Limit errors only clear at the reset time and plan restrictions only after
// an upgrade.
func (k ErrorKind) Retryable() bool {
	return k == KindProviderError || k == KindSystemError
}

// UsageError is returned in place of an Entitlement when a usage request is
// rejected. ResetTime is always populated so clients can render a countdown
// even on error paths.
type UsageError struct {
	Kind           ErrorKind
	Message        string
	RemainingCount int
	ResetTime      time.Time
}

func (e *UsageError) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

// NewUsageError builds a UsageError snapshotting the remaining count.
func NewUsageError(kind ErrorKind, message string, remaining int, reset time.Time) *UsageError {
	return &UsageError{Kind: kind, Message: message, RemainingCount: remaining, ResetTime: reset}
}
