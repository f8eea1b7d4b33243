// Package errors renders JSON error bodies for the XHR endpoints. Page routes render
// the error template instead.
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the body of every JSON error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// CodeForStatus picks the error code matching an HTTP status
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeInvalidInput
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeAlreadyExists
	case http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	default:
		return ErrCodeInternalError
	}
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Access denied",
	http.StatusNotFound:            "Resource not found",
	http.StatusInternalServerError: "Internal server error",
	http.StatusServiceUnavailable:  "Service temporarily unavailable",
}

// RespondWithError sends err with the given status
func RespondWithError(c *gin.Context, status int, err *APIError) {
	c.JSON(status, err)
}

// respond builds the APIError for status. An empty message uses the status default.
func respond(c *gin.Context, status int, message string, details any) {
	if message == "" {
		message = defaultMessages[status]
	}
	RespondWithError(c, status, &APIError{
		Code:    CodeForStatus(status),
		Message: message,
		Details: details,
	})
}

func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, message, nil)
}

func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, message, nil)
}

func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, message, nil)
}

// InternalErrorWithDetails sends a 500 carrying details, such as a partial delete report.
func InternalErrorWithDetails(c *gin.Context, message string, details any) {
	respond(c, http.StatusInternalServerError, message, details)
}

func ServiceUnavailable(c *gin.Context, message string) {
	respond(c, http.StatusServiceUnavailable, message, nil)
}
