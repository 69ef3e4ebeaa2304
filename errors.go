package convopg

import "errors"

// Common errors
var (
	// ErrInvalidConfig is returned when the manager configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStorageError is returned when a storage operation failed
	ErrStorageError = errors.New("storage operation failed")
)
