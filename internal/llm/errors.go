package llm

import (
	"errors"
	"net/http"
)

// TransientError represents a temporary error that may succeed on retry
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable)
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// IsTransient returns true if the error is transient and should be retried
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// classifyStatus marks rate limiting and server-side failures as transient
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return NewTransientError(err)
	}
	return err
}
