package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"syscall"
	"time"

	"absence-desk/internal/models"
)

// ErrorCategory represents different types of errors in the system
type ErrorCategory string

const (
	// Resource directory could not be determined
	ErrorCategoryResourceDir ErrorCategory = "resource_dir"
	// File system related errors
	ErrorCategoryFileSystem ErrorCategory = "filesystem"
	// Asset content is not text
	ErrorCategoryEncoding ErrorCategory = "encoding"
	// Host protocol related errors
	ErrorCategoryIPC ErrorCategory = "ipc"
	// Validation related errors
	ErrorCategoryValidation ErrorCategory = "validation"
	// Plugin failures
	ErrorCategoryPlugin ErrorCategory = "plugin"
	// System/internal errors
	ErrorCategorySystem ErrorCategory = "system"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// StructuredError represents a structured error with additional context
type StructuredError struct {
	Category  ErrorCategory          `json:"category"`
	Severity  ErrorSeverity          `json:"severity"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (se *StructuredError) Error() string {
	if se.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", se.Category, se.Code, se.Message, se.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", se.Category, se.Code, se.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (se *StructuredError) Unwrap() error {
	return se.Cause
}

// Description returns the human-readable text handed to the host shell.
// It carries no category or code prefix.
func (se *StructuredError) Description() string {
	if se.Cause != nil {
		return fmt.Sprintf("%s: %v", se.Message, se.Cause)
	}
	return se.Message
}

// ToIPCError converts a StructuredError to an IPC protocol error
func (se *StructuredError) ToIPCError() *models.IPCError {
	var code int
	switch se.Category {
	case ErrorCategoryValidation:
		code = models.CodeInvalidParams
	case ErrorCategoryIPC:
		code = models.CodeInvalidRequest
	default:
		code = models.CodeInternalError
	}

	return &models.IPCError{
		Code:    code,
		Message: se.Description(),
		Data: map[string]interface{}{
			"category": se.Category,
			"code":     se.Code,
		},
	}
}

// NewStructuredError creates a new structured error
func NewStructuredError(category ErrorCategory, severity ErrorSeverity, code, message string) *StructuredError {
	return &StructuredError{
		Category:  category,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (se *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if se.Context == nil {
		se.Context = make(map[string]interface{})
	}
	se.Context[key] = value
	return se
}

// WithCause sets the underlying cause error
func (se *StructuredError) WithCause(err error) *StructuredError {
	se.Cause = err
	return se
}

// Predefined error constructors for common error scenarios

// NewResourceDirError creates a resource directory resolution error
func NewResourceDirError(message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryResourceDir, ErrorSeverityHigh, ErrCodeResourceDirUnavailable, message).WithCause(err)
}

// NewFileSystemError creates a file system related error
func NewFileSystemError(code, message string, err error) *StructuredError {
	severity := ErrorSeverityMedium
	if code == ErrCodeFileNotFound {
		severity = ErrorSeverityLow
	} else if code == ErrCodePermissionDenied {
		severity = ErrorSeverityHigh
	}

	return NewStructuredError(ErrorCategoryFileSystem, severity, code, message).WithCause(err)
}

// NewEncodingError creates an asset encoding error
func NewEncodingError(message string) *StructuredError {
	return NewStructuredError(ErrorCategoryEncoding, ErrorSeverityLow, ErrCodeInvalidUTF8, message)
}

// NewIPCError creates a host protocol related error
func NewIPCError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryIPC, ErrorSeverityMedium, code, message).WithCause(err)
}

// NewValidationError creates a validation related error
func NewValidationError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryValidation, ErrorSeverityLow, code, message).WithCause(err)
}

// NewPluginError creates a plugin failure
func NewPluginError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryPlugin, ErrorSeverityMedium, code, message).WithCause(err)
}

// NewSystemError creates a system/internal error
func NewSystemError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategorySystem, ErrorSeverityCritical, code, message).WithCause(err)
}

// ClassifyFileError maps an I/O failure onto a filesystem error code
func ClassifyFileError(err error) string {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return ErrCodeFileNotFound
	case stderrors.Is(err, fs.ErrPermission):
		return ErrCodePermissionDenied
	case stderrors.Is(err, syscall.EISDIR):
		return ErrCodeIsDirectory
	default:
		return ErrCodeReadFailed
	}
}

// AsStructured returns err as a *StructuredError when it is one (or wraps one)
func AsStructured(err error) (*StructuredError, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Common error codes
const (
	// Resource directory error codes
	ErrCodeResourceDirUnavailable = "RESOURCE_DIR_UNAVAILABLE"

	// File system error codes
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeIsDirectory      = "IS_DIRECTORY"
	ErrCodeReadFailed       = "READ_FAILED"

	// Encoding error codes
	ErrCodeInvalidUTF8 = "INVALID_UTF8"

	// Host protocol error codes
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMethodNotFound  = "METHOD_NOT_FOUND"
	ErrCodeInvalidParams   = "INVALID_PARAMS"
	ErrCodeDuplicateMethod = "DUPLICATE_METHOD"

	// Validation error codes
	ErrCodeUnsupportedScheme = "UNSUPPORTED_SCHEME"
	ErrCodeUnsupportedApp    = "UNSUPPORTED_APP"
	ErrCodePathNotFound      = "PATH_NOT_FOUND"
	ErrCodeInvalidAssetPath  = "INVALID_ASSET_PATH"

	// Plugin error codes
	ErrCodeLaunchFailed = "LAUNCH_FAILED"

	// System error codes
	ErrCodeEventLoopFailed = "EVENT_LOOP_FAILED"
	ErrCodeUnexpectedPanic = "UNEXPECTED_PANIC"
	ErrCodeResultEncoding  = "RESULT_ENCODING_FAILED"
	ErrCodeInitialization  = "INITIALIZATION_FAILED"
)
