// Package errors provides structured error handling for htmlstore.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 3XX: Store errors (SQLite, FTS)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryStore indicates database and index errors.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort the run.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the run can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeInputNotFound  = "ERR_201_INPUT_NOT_FOUND"
	ErrCodeFileUnreadable = "ERR_202_FILE_UNREADABLE"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"

	// Store errors (300-399)
	ErrCodeStoreOpen   = "ERR_301_STORE_OPEN"
	ErrCodeStoreWrite  = "ERR_302_STORE_WRITE"
	ErrCodeStoreLocked = "ERR_303_STORE_LOCKED"
	ErrCodeStoreSchema = "ERR_304_STORE_SCHEMA"

	// Validation errors (400-499)
	ErrCodeInvalidPath  = "ERR_401_INVALID_PATH"
	ErrCodeInvalidQuery = "ERR_402_INVALID_QUERY"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeExtractFailed = "ERR_502_EXTRACT_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "201" from "ERR_201_INPUT_NOT_FOUND".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryStore
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeInputNotFound, ErrCodeStoreOpen, ErrCodeStoreWrite,
		ErrCodeStoreLocked, ErrCodeStoreSchema, ErrCodeDiskFull:
		return SeverityFatal
	case ErrCodeFileUnreadable, ErrCodeExtractFailed:
		return SeverityWarning
	}
	return SeverityError
}
