package apierr

import "net/http"

// --- Common ---

func InvalidRequestBody() *Error {
	return New(CodeInvalidRequestBody, http.StatusBadRequest, "Invalid request body")
}

func InternalError(cause error) *Error {
	return Wrap(CodeInternalError, http.StatusInternalServerError, "Internal server error", cause)
}

// --- Operation ---

func OperationNotFound() *Error {
	return New(CodeOperationNotFound, http.StatusNotFound, "Operation not found")
}

func InvalidOperationID() *Error {
	return New(CodeInvalidOperationID, http.StatusBadRequest, "Invalid operation ID")
}

func SubmitFailed(cause error) *Error {
	return Wrap(CodeSubmitFailed, http.StatusInternalServerError, "Failed to submit operation", cause)
}

// --- Crawl ---

func URLRequired() *Error {
	return New(CodeURLRequired, http.StatusBadRequest, "url is required")
}

func URLInvalid() *Error {
	return New(CodeURLInvalid, http.StatusBadRequest, "url must be an absolute http(s) URL")
}

// --- Upload ---

func FileRequired() *Error {
	return New(CodeFileRequired, http.StatusBadRequest, "File is required (multipart field 'file')")
}

// FileEmpty and UnsupportedFormat carry the extractor's message verbatim: these
// are user errors and must reach the caller without a generic wrapper.
func FileEmpty(message string) *Error {
	return New(CodeFileEmpty, http.StatusBadRequest, message)
}

func UnsupportedFormat(message string) *Error {
	return New(CodeUnsupportedFormat, http.StatusBadRequest, message)
}

func StagingFailed(cause error) *Error {
	return Wrap(CodeStagingFailed, http.StatusInternalServerError, "Failed to stage uploaded file", cause)
}

// --- Health ---

func DatabaseNotReady() *Error {
	return New(CodeDatabaseNotReady, http.StatusServiceUnavailable, "Database not ready")
}
