package domain

import (
	"errors"
	"fmt"
)

// Request errors.
var (
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Origin errors.
var (
	ErrOrigin       = errors.New("origin returned non-success status")
	ErrNetwork      = errors.New("origin unreachable")
	ErrExtraction   = errors.New("feed extraction failed")
	ErrFeedTooLarge = errors.New("feed document exceeds size limit")
)

// ErrFetchFailure is the single outcome every origin or extraction failure
// collapses into at the usecase boundary.
var ErrFetchFailure = errors.New("failed to fetch RSS feed")

// OriginError reports a non-success HTTP status from the upstream feed.
type OriginError struct {
	StatusCode int
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("Failed to fetch RSS: %d", e.StatusCode)
}

func (e *OriginError) Unwrap() error {
	return ErrOrigin
}

// NetworkError reports a transport-level failure talking to the upstream.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return e.Cause.Error()
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Cause}
}

// FetchFailure carries the underlying cause while matching ErrFetchFailure.
// Its message is the cause's message so it can be echoed back as "details".
type FetchFailure struct {
	Cause error
}

// NewFetchFailure wraps err unless it already is a FetchFailure.
func NewFetchFailure(err error) error {
	var ff *FetchFailure
	if errors.As(err, &ff) {
		return err
	}
	return &FetchFailure{Cause: err}
}

func (e *FetchFailure) Error() string {
	return e.Cause.Error()
}

func (e *FetchFailure) Unwrap() []error {
	return []error{ErrFetchFailure, e.Cause}
}
