// internal/storage/errors.go
package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrInit wraps failures to open or provision the database. Fatal;
	// the caller surfaces it as a blocking startup failure.
	ErrInit = errors.New("storage init failed")

	// ErrNotInitialized is returned by any store call issued before
	// EnsureSchema has completed. Ordering bug in the integration.
	ErrNotInitialized = errors.New("storage not initialized")

	// ErrDuplicateEmail is returned by AddCredential when the email is
	// already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ValidationError reports bad input to a write operation. Recoverable;
// surfaced as a field-level message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
