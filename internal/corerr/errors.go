// Package corerr implements the error taxonomy of spec §7: the handful of
// distinct failure kinds the rest of COMPASS classifies on. The
// "recoverable, does not abort" cases are not errors and have no types
// here: a decision-tree dead end is dialog.Outcome.DeadEnd, and a JSON
// parse failure is the empty map llm.StructuredCaller returns.
package corerr

import (
	"errors"
	"fmt"
)

// ServiceKind distinguishes the abort-class failures: config, not-initialized,
// and value errors all abort the run (spec §7 items 1-3).
type ServiceKind int

const (
	// Config covers invalid input schema, missing required fields, or an
	// unknown client type. Raised eagerly at startup.
	Config ServiceKind = iota
	// NotInitialized covers access to a service outside its scoped
	// acquisition (§4.1) — a programmer error, not a runtime condition.
	NotInitialized
	// Value covers invalid internal arguments, e.g. duplicate task names
	// bound to the same model assignment.
	Value
)

func (k ServiceKind) String() string {
	switch k {
	case Config:
		return "config"
	case NotInitialized:
		return "not_initialized"
	case Value:
		return "value"
	default:
		return "unknown"
	}
}

// ServiceError is an abort-class error: the driver never recovers from one,
// it only ever dies from these (or cancellation), per spec §7's propagation
// policy.
type ServiceError struct {
	Kind ServiceKind
	Msg  string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is reports whether target is a *ServiceError with the same Kind, so
// callers can write errors.Is(err, corerr.NotInitializedErr) style checks
// against a sentinel built with the matching Kind and a zero Msg.
func (e *ServiceError) Is(target error) bool {
	var t *ServiceError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NewServiceError(kind ServiceKind, msg string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Msg: msg, Err: err}
}

// NotInitializedErr is the sentinel used with errors.Is(err, corerr.NotInitializedErr).
var NotInitializedErr = &ServiceError{Kind: NotInitialized}

// ProviderKind distinguishes retryable from terminal LLM-provider failures
// (spec §7 items 4-5, and the external interface classification in §6).
type ProviderKind int

const (
	RateLimit ProviderKind = iota
	Transient5xx
	Timeout
	BadRequest
	Auth
)

func (k ProviderKind) String() string {
	switch k {
	case RateLimit:
		return "rate_limit"
	case Transient5xx:
		return "transient_5xx"
	case Timeout:
		return "timeout"
	case BadRequest:
		return "bad_request"
	case Auth:
		return "auth"
	default:
		return "unknown"
	}
}

// IsRetryable reports whether the core's LLM service should retry this kind
// internally with backoff (rate limit, transient 5xx, timeout) as opposed to
// propagating it to the caller (bad request, auth).
func (k ProviderKind) IsRetryable() bool {
	switch k {
	case RateLimit, Transient5xx, Timeout:
		return true
	default:
		return false
	}
}

// ProviderError wraps an LLM provider failure with its classification.
type ProviderError struct {
	Kind ProviderKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether the wrapped failure is one the LLM service
// retries internally rather than propagating.
func (e *ProviderError) IsRetryable() bool { return e.Kind.IsRetryable() }

func NewProviderError(kind ProviderKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Err: err}
}

// TaskFailure wraps any unhandled failure inside a per-jurisdiction task
// (spec §7 item 8). It always carries the jurisdiction's display name so
// top-level error logs remain attributable even with concurrent tasks.
type TaskFailure struct {
	Jurisdiction string
	Err          error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("task failure for %s: %v", e.Jurisdiction, e.Err)
}

func (e *TaskFailure) Unwrap() error { return e.Err }

func NewTaskFailure(jurisdiction string, err error) *TaskFailure {
	return &TaskFailure{Jurisdiction: jurisdiction, Err: err}
}
