// Package errors provides the structured error type used across unreact.
//
// Errors carry a category, a stable code and a recoverability flag so callers
// can tell startup-fatal conditions (missing watch directory, port in use)
// apart from steady-state failures (a template that did not render) that the
// watch loop absorbs and logs.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig  ErrorType = "config"
	ErrorTypeIO      ErrorType = "io"
	ErrorTypeBuild   ErrorType = "build"
	ErrorTypeWatch   ErrorType = "watch"
	ErrorTypeNetwork ErrorType = "network"
)

// Error codes.
const (
	CodeWatchDirMissing  = "WATCH_DIR_MISSING"
	CodeWatchFailed      = "WATCH_FAILED"
	CodeListenFailed     = "LISTEN_FAILED"
	CodeSourceDirMissing = "SOURCE_DIR_MISSING"
	CodeRenderTemplate   = "RENDER_TEMPLATE"
	CodeParseTemplate    = "PARSE_TEMPLATE"
	CodeConvertStyle     = "CONVERT_STYLE"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeFileRead         = "FILE_READ"
	CodeFileWrite        = "FILE_WRITE"
	CodeDirectoryCreate  = "DIR_CREATE"
	CodeDirectoryRemove  = "DIR_REMOVE"
	CodeDirectoryCopy    = "DIR_COPY"
)

// UnreactError is a structured error type with context.
type UnreactError struct {
	Type        ErrorType
	Code        string
	Message     string
	Path        string
	Cause       error
	Recoverable bool
}

// Error implements the error interface.
func (e *UnreactError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("'%s'", e.Path))
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *UnreactError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *UnreactError) Is(target error) bool {
	var t *UnreactError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath attaches the file or directory the error is about.
func (e *UnreactError) WithPath(path string) *UnreactError {
	e.Path = path

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *UnreactError {
	return &UnreactError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *UnreactError {
	return &UnreactError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewBuildError creates a build error. Build errors never stop the watch loop.
func NewBuildError(code, message string, cause error) *UnreactError {
	return &UnreactError{
		Type:        ErrorTypeBuild,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewWatchError creates a file watching error for the given directory.
func NewWatchError(code, dir string, cause error) *UnreactError {
	return &UnreactError{
		Type:        ErrorTypeWatch,
		Code:        code,
		Message:     "cannot watch directory",
		Path:        dir,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewNetworkError creates a network error, typically a failed listen.
func NewNetworkError(code, message string, cause error) *UnreactError {
	return &UnreactError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ue *UnreactError
	if errors.As(err, &ue) {
		return ue.Recoverable
	}

	return false
}

// IsFatal reports whether err is a structured error that must abort startup.
func IsFatal(err error) bool {
	var ue *UnreactError
	if errors.As(err, &ue) {
		return !ue.Recoverable
	}

	return false
}

// IsType checks whether err is an UnreactError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ue *UnreactError
	if errors.As(err, &ue) {
		return ue.Type == errType
	}

	return false
}

// HasCode checks whether err is an UnreactError with the given code.
func HasCode(err error, code string) bool {
	var ue *UnreactError
	if errors.As(err, &ue) {
		return ue.Code == code
	}

	return false
}
