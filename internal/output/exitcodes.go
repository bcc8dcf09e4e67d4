package output

import "errors"

// Exit codes:
// 0 = success
// 1 = user error (bad descriptor, unknown variable, bad flags)
// 2 = system error (fetch failed, I/O error)
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
)

// ExitError is an error carrying a process exit code.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an error for user-caused issues (exit code 1).
func NewUserError(message string) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message}
}

// NewSystemError creates an error for system failures (exit code 2).
func NewSystemError(message string) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message}
}

// NewSystemErrorWithCause creates a system error wrapping a cause.
func NewSystemErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message, Cause: cause}
}

// GetExitCode extracts the exit code from an error: ExitSuccess for nil,
// the carried code for ExitError, ExitUserError otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
