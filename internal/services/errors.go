package services

import "fmt"

// Typed service errors. Handlers map these to HTTP status codes in one place.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// ProviderError carries a validation message reported by the identity
// provider (e.g. duplicate email). Surfaced verbatim with a 400.
type ProviderError struct{ Message string }

func (e *ProviderError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// StorageError wraps a failed database call. Never retried.
type StorageError struct{ Err error }

func (e *StorageError) Error() string { return fmt.Sprintf("storage error: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// UpstreamError wraps a failed completion API call. Never retried.
type UpstreamError struct{ Err error }

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream error: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }
