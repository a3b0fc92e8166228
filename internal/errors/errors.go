package errors

import (
	"fmt"
)

// Error is the structured error type for panamax-search.
// It carries enough context to log, classify, and present a failure.
type Error struct {
	// Code is the unique error code (e.g., "ERR_301_METADATA_CORRUPT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Environment, Data, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works against sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf is New with a formatted message.
func Newf(code string, cause error, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), cause)
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel values for errors.Is checks. Only the code is compared.
var (
	ErrMirrorNotFound  = &Error{Code: ErrCodeMirrorNotFound}
	ErrMirrorNotDir    = &Error{Code: ErrCodeMirrorNotDirectory}
	ErrCacheMissing    = &Error{Code: ErrCodeCacheMissing}
	ErrCacheStale      = &Error{Code: ErrCodeCacheStale}
	ErrCacheCorrupt    = &Error{Code: ErrCodeCacheCorrupt}
	ErrCacheWrite      = &Error{Code: ErrCodeCacheWrite}
	ErrMetadataCorrupt = &Error{Code: ErrCodeMetadataCorrupt}
	ErrManifestMissing = &Error{Code: ErrCodeManifestUnavailable}
	ErrQueryEmpty      = &Error{Code: ErrCodeQueryEmpty}
	ErrInvalidQuery    = &Error{Code: ErrCodeInvalidQuery}
	ErrBuildFailed     = &Error{Code: ErrCodeBuildFailed}
	ErrConfigInvalid   = &Error{Code: ErrCodeConfigInvalid}
)

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current operation.
func IsFatal(err error) bool {
	var e *Error
	if As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first Error in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from the first Error in the chain.
func GetCategory(err error) Category {
	var e *Error
	if As(err, &e) {
		return e.Category
	}
	return ""
}
