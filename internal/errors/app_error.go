package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError
type ErrorType string

const (
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeModel      ErrorType = "MODEL"
)

// disposition is how an ErrorType answers over HTTP. An empty detail
// means the message is safe to show the client.
type disposition struct {
	status      int
	problemType string
	detail      string
}

var dispositions = map[ErrorType]disposition{
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation, ""},
	ErrTypeParsing:    {http.StatusUnprocessableEntity, TypeUnreadableExport, ""},
	ErrTypeNotFound:   {http.StatusNotFound, TypeNotFound, ""},
	ErrTypeModel:      {http.StatusBadGateway, TypeModelUnavailable, ""},
	ErrTypeStorage:    {http.StatusInternalServerError, TypeStorage, "The result store could not complete the request"},
	ErrTypeConfig:     {http.StatusInternalServerError, TypeConfig, "The service is misconfigured"},
}

var unknownDisposition = disposition{http.StatusInternalServerError, TypeInternal, "An unexpected error occurred while processing your request"}

// AppError is a failure raised at an I/O edge
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithContext attaches a key to the error. Context reaches the client only
// for 4xx dispositions.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

func (e *AppError) disposition() disposition {
	if d, ok := dispositions[e.Type]; ok {
		return d
	}
	return unknownDisposition
}

func newAppError(t ErrorType, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause}
}

// NewParsingError reports an export the readers could not parse
func NewParsingError(message string, cause error) *AppError {
	return newAppError(ErrTypeParsing, message, cause)
}

// NewStorageError reports a result store failure
func NewStorageError(message string, cause error) *AppError {
	return newAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError reports invalid input caught below the HTTP layer
func NewAppValidationError(message string) *AppError {
	return newAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError reports a missing resource
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrTypeNotFound, resource+" not found", nil)
}

func NewConfigError(message string, cause error) *AppError {
	return newAppError(ErrTypeConfig, message, cause)
}

// NewModelError reports a classifier failure
func NewModelError(message string, cause error) *AppError {
	return newAppError(ErrTypeModel, message, cause)
}

// IsType reports whether err wraps an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Type == t
}
