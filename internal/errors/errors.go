// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. This enables better error categorization, logging,
// and user experience by providing context-aware error information.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// AuthFailed indicates the org session is missing, invalid, or expired.
	AuthFailed Kind = "auth_failed"
	// NotFound indicates the referenced org, object, or field does not exist.
	NotFound Kind = "not_found"
	// RateLimited indicates the org rejected or timed out a call; safe to retry.
	RateLimited Kind = "rate_limited"
	// DeployValidationFailed indicates the org rejected a deploy with component errors.
	DeployValidationFailed Kind = "deploy_validation_failed"
	// MalformedReport indicates a report definition could not be parsed.
	MalformedReport Kind = "malformed_report"
	// CLIUnavailable indicates the sf CLI is not installed or not on PATH.
	CLIUnavailable Kind = "cli_unavailable"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind carried by err, or "" when err has none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// IsTransient reports whether err is worth retrying with backoff.
// Only rate-limit and network-timeout failures qualify; auth and
// validation failures never do.
func IsTransient(err error) bool { return Is(err, RateLimited) }
