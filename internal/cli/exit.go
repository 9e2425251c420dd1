package cli

import (
	"fmt"

	"github.com/ppiankov/policygate/internal/model"
)

// Process exit codes
const (
	CodeSafe   = 0
	CodeError  = 1
	CodeReview = 2
	CodeBlock  = 3
	CodeUsage  = 64
)

// ExitError carries a process exit code; Err is nil when the code is the
// whole message (a decision status)
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// StatusCode maps a decision status to its exit code
func StatusCode(status model.DecisionStatus) int {
	switch status {
	case model.StatusSafe:
		return CodeSafe
	case model.StatusReview:
		return CodeReview
	default:
		return CodeBlock
	}
}

// StatusError returns nil for safe_to_use and an *ExitError otherwise
func StatusError(status model.DecisionStatus) error {
	code := StatusCode(status)
	if code == CodeSafe {
		return nil
	}
	return &ExitError{Code: code}
}
