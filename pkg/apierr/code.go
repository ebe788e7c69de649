package apierr

// Code is a machine-readable error code returned in API responses.
type Code string

// Common errors.
const (
	CodeInvalidRequestBody Code = "INVALID_REQUEST_BODY"
	CodeInternalError      Code = "INTERNAL_ERROR"
)

// Operation errors.
const (
	CodeOperationNotFound  Code = "OPERATION_NOT_FOUND"
	CodeInvalidOperationID Code = "INVALID_OPERATION_ID"
	CodeSubmitFailed       Code = "SUBMIT_FAILED"
)

// Crawl errors.
const (
	CodeURLRequired Code = "URL_REQUIRED"
	CodeURLInvalid  Code = "URL_INVALID"
)

// Upload errors.
const (
	CodeFileRequired      Code = "FILE_REQUIRED"
	CodeFileEmpty         Code = "FILE_EMPTY"
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	CodeStagingFailed     Code = "STAGING_FAILED"
)

// Health errors.
const (
	CodeDatabaseNotReady Code = "DATABASE_NOT_READY"
)
