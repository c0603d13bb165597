package domain

import "errors"

var (
	// ErrNotFound indicates the requested movie does not exist.
	ErrNotFound = errors.New("movie not found")
	// ErrInvalidInput marks a malformed submission or rating payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable wraps failures of the record store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
