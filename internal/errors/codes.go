// Package errors provides structured error handling for panamax-search.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Environment and cache I/O errors
//   - 3XX: Mirror data errors (metadata, manifests)
//   - 4XX: Query validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates mirror location and cache file errors.
	CategoryIO Category = "IO"
	// CategoryData indicates corrupt or missing mirror content.
	CategoryData Category = "DATA"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"
	ErrCodeUsage         = "ERR_102_INVALID_USAGE"

	// Environment and cache errors (200-299)
	ErrCodeMirrorNotFound     = "ERR_201_MIRROR_NOT_FOUND"
	ErrCodeMirrorNotDirectory = "ERR_202_MIRROR_NOT_DIRECTORY"
	ErrCodeCacheMissing       = "ERR_203_CACHE_MISSING"
	ErrCodeCacheStale         = "ERR_204_CACHE_STALE"
	ErrCodeCacheCorrupt       = "ERR_205_CACHE_CORRUPT"
	ErrCodeCacheWrite         = "ERR_206_CACHE_WRITE"

	// Mirror data errors (300-399)
	ErrCodeMetadataCorrupt     = "ERR_301_METADATA_CORRUPT"
	ErrCodeManifestUnavailable = "ERR_302_MANIFEST_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeQueryEmpty   = "ERR_401_QUERY_EMPTY"
	ErrCodeInvalidQuery = "ERR_402_INVALID_QUERY"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeBuildFailed = "ERR_502_BUILD_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "301" from "ERR_301_METADATA_CORRUPT"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryData
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMirrorNotFound, ErrCodeMirrorNotDirectory, ErrCodeMetadataCorrupt, ErrCodeBuildFailed:
		return SeverityFatal
	case ErrCodeCacheMissing, ErrCodeCacheStale, ErrCodeCacheCorrupt, ErrCodeCacheWrite,
		ErrCodeManifestUnavailable:
		return SeverityWarning
	default:
		return SeverityError
	}
}
