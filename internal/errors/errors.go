// Package errors defines the failures the pipeline reports and renders
// them as RFC 7807 problems.
//
// Two kinds coexist. APIError is already shaped for a response: a status,
// a machine-readable code and optional details. AppError is raised at an
// I/O edge (reading an export, the store, the classifier) and is mapped to
// a status only when it reaches the HTTP layer.
package errors

import (
	"net/http"
)

// Error codes carried in the error_code problem member
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeRunNotFound       = "RUN_NOT_FOUND"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedExport = "UNSUPPORTED_EXPORT"
	CodeUnreadableExport  = "UNREADABLE_EXPORT"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeModelUnavailable  = "MODEL_UNAVAILABLE"
	CodeServiceDown       = "SERVICE_UNAVAILABLE"
)

var codeTypes = map[string]string{
	CodeInvalidRequest:    TypeValidation,
	CodeValidationFailed:  TypeValidation,
	CodeRunNotFound:       TypeNotFound,
	CodePayloadTooLarge:   TypePayloadTooLarge,
	CodeUnsupportedExport: TypeUnsupportedExport,
	CodeUnreadableExport:  TypeUnreadableExport,
	CodeRateLimited:       TypeRateLimit,
	CodeModelUnavailable:  TypeModelUnavailable,
	CodeServiceDown:       TypeServiceDown,
}

// APIError is a failure with a fixed response shape
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ProblemType is the problem URI for the error code
func (e *APIError) ProblemType() string {
	if t, ok := codeTypes[e.ErrorCode]; ok {
		return t
	}
	if e.StatusCode == http.StatusNotFound {
		return TypeNotFound
	}
	return TypeInternal
}

// New creates an APIError
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

var (
	ErrRunNotFound        = New(http.StatusNotFound, CodeRunNotFound, "Pipeline run not found")
	ErrPayloadTooLarge    = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Export exceeds the upload limit")
	ErrUnsupportedExport  = New(http.StatusUnsupportedMediaType, CodeUnsupportedExport, "Export format is not supported")
	ErrUnreadableExport   = New(http.StatusUnprocessableEntity, CodeUnreadableExport, "Export could not be read")
	ErrRateLimitExceeded  = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
	ErrModelUnavailable   = New(http.StatusBadGateway, CodeModelUnavailable, "Classifier is unavailable")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceDown, "Service temporarily unavailable")
)

// ValidationError names one invalid field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a multi-field failure
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// InvalidRequestWithError reports a body that could not be decoded
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation reports a single invalid field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors reports several invalid fields at once
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: errs})
}

// UnreadableExportError wraps a reader failure on an uploaded export
func UnreadableExportError(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeUnreadableExport, "Export could not be read", err.Error())
}
