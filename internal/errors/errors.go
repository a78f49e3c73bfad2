package errors

import (
	"fmt"
)

// IndexError is the structured error type for htmlstore.
// It carries the context needed to distinguish invocation errors (abort
// before any file is processed), per-file errors (degrade and continue)
// and store errors (abort the remainder of the run).
type IndexError struct {
	// Code is the unique error code (e.g., "ERR_201_INPUT_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Store, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Path is the file or directory the error relates to, if any.
	Path string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with IndexError.
func (e *IndexError) Is(target error) bool {
	if t, ok := target.(*IndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithPath records the offending path on the error.
// Returns the error for method chaining.
func (e *IndexError) WithPath(path string) *IndexError {
	e.Path = path
	return e
}

// New creates a new IndexError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an IndexError from an existing error.
// The error's message becomes the IndexError message.
func Wrap(code string, err error) *IndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InputError creates an error for a missing or unusable input location.
func InputError(message string, cause error) *IndexError {
	return New(ErrCodeInputNotFound, message, cause)
}

// StoreError creates a store-related error.
func StoreError(message string, cause error) *IndexError {
	return New(ErrCodeStoreWrite, message, cause)
}

// ExtractError creates a per-file extraction error.
func ExtractError(message string, cause error) *IndexError {
	return New(ErrCodeExtractFailed, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ie, ok := err.(*IndexError); ok {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an IndexError.
// Returns empty string if not an IndexError.
func GetCode(err error) string {
	if ie, ok := err.(*IndexError); ok {
		return ie.Code
	}
	return ""
}
