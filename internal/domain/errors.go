package domain

import "errors"

var (
	// ErrPriceUnavailable rejects a mutation attempted without a live quote
	// for the instrument. No backend call is made in that case.
	ErrPriceUnavailable = errors.New("price not available")

	// ErrNetwork marks transport-level failures: the backend never produced
	// a response.
	ErrNetwork = errors.New("network error")
)

// BackendError carries the human-readable message of a request the backend
// received and rejected (success=false).
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// NewBackendError builds a BackendError, falling back to a generic message
// when the backend did not provide one.
func NewBackendError(message, fallback string) *BackendError {
	if message == "" {
		message = fallback
	}
	return &BackendError{Message: message}
}
