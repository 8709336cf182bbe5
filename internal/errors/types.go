// Package errors provides the typed error used across folio.
//
// Errors carry a category (ErrorType) and a stable code so that callers can
// branch on them with errors.Is and the HTTP layer can map them to status
// codes without string matching.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeDocumentTooDeep  = "ERR_DOCUMENT_TOO_DEEP"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodePostNotFound     = "ERR_POST_NOT_FOUND"
	ErrCodeUnknownFormat    = "ERR_UNKNOWN_FORMAT"
	ErrCodeUpstreamStatus   = "ERR_UPSTREAM_STATUS"
	ErrCodeUpstreamRequest  = "ERR_UPSTREAM_REQUEST"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// FolioError is a structured error type with context.
type FolioError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *FolioError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	parts = append(parts, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *FolioError) Unwrap() error {
	return e.Cause
}

// Is matches another FolioError with the same type and code.
func (e *FolioError) Is(target error) bool {
	var t *FolioError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error. It returns a copy so
// that package-level sentinel errors are never mutated.
func (e *FolioError) WithContext(key string, value interface{}) *FolioError {
	cp := *e
	cp.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	cp.Context[key] = value

	return &cp
}

// WithCause returns a copy of the error wrapping cause.
func (e *FolioError) WithCause(cause error) *FolioError {
	cp := *e
	cp.Cause = cause

	return &cp
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *FolioError {
	return &FolioError{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *FolioError {
	return &FolioError{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewRenderError creates a rendering error.
func NewRenderError(code, message string) *FolioError {
	return &FolioError{Type: ErrorTypeRender, Code: code, Message: message}
}

// NewUpstreamError creates an error for a failed call to the CMS.
func NewUpstreamError(code, message string, cause error) *FolioError {
	return &FolioError{Type: ErrorTypeUpstream, Code: code, Message: message, Cause: cause}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *FolioError {
	return &FolioError{Type: ErrorTypeConfig, Code: code, Message: message}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *FolioError {
	return &FolioError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

func hasType(err error, typ ErrorType) bool {
	var fe *FolioError
	if errors.As(err, &fe) {
		return fe.Type == typ
	}

	return false
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsRender checks if an error came from the document renderer.
func IsRender(err error) bool { return hasType(err, ErrorTypeRender) }

// IsUpstream checks if an error came from the CMS.
func IsUpstream(err error) bool { return hasType(err, ErrorTypeUpstream) }

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool { return hasType(err, ErrorTypeValidation) }

// HTTPStatus maps an error to the status code the server responds with.
func HTTPStatus(err error) int {
	var fe *FolioError
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError
	}

	switch fe.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRender:
		return http.StatusUnprocessableEntity
	case ErrorTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Logger is the subset of logging.Logger the handler needs.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error logging.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level chosen by its type. Expected conditions such as
// missing posts and malformed input are warnings; everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var fe *FolioError
	if !errors.As(err, &fe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch fe.Type {
	case ErrorTypeNotFound, ErrorTypeValidation, ErrorTypeRender:
		h.logger.Warn(ctx, err, "Request failed",
			"type", fe.Type,
			"code", fe.Code)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", fe.Type,
			"code", fe.Code)
	}
}
