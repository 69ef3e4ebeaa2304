package compaction

import (
	"errors"
	"fmt"
)

// Sentinel errors for compaction operations.
var (
	// ErrInvalidConfig indicates invalid compaction configuration.
	ErrInvalidConfig = errors.New("invalid compaction configuration")

	// ErrStorageError indicates a transcript store operation failed.
	ErrStorageError = errors.New("storage operation failed")

	// ErrEngineError indicates a generation engine call failed.
	ErrEngineError = errors.New("generation engine call failed")
)

// CompactionError provides structured error context for compaction operations.
type CompactionError struct {
	// Op is the operation that failed (e.g., "Manage", "SummarizeAndArchive")
	Op string

	// UserID is the user whose transcript was being compacted
	UserID string

	// Err is the underlying error
	Err error
}

// Error returns a formatted error message.
func (e *CompactionError) Error() string {
	msg := fmt.Sprintf("compaction %s failed", e.Op)
	if e.UserID != "" {
		msg += fmt.Sprintf(" for user %s", e.UserID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *CompactionError) Unwrap() error {
	return e.Err
}

// wrapError wraps an error with operation and user context. If err is nil,
// returns nil.
func wrapError(op, userID string, err error) error {
	if err == nil {
		return nil
	}
	return &CompactionError{Op: op, UserID: userID, Err: err}
}
