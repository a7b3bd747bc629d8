package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError represents a structured application error with an HTTP status.
// The message is what the client sees; wrap the underlying cause separately
// and log it server-side.
type AppError struct {
	HTTPStatus int
	Message    string
	Err        error // underlying cause, never sent to the client
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for the five error categories of the API.

// NewAuthError covers a missing credential (401).
func NewAuthError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

// NewForbidden covers an invalid or expired credential (403).
func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

// NewNotFound covers both absent resources and resources owned by someone
// else. The two cases are intentionally indistinguishable.
func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

// NewValidationError covers malformed or conflicting client input (400).
func NewValidationError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

// NewUpstreamError covers LLM/provider failures (500, provider message
// passed through).
func NewUpstreamError(msg string, err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg, Err: err}
}

// NewInternalError covers unexpected failures; the client sees only the
// generic message.
func NewInternalError(err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// --- Gin response helpers ---

// Error sends `{"error": ...}` with the status carried by err. Non-AppError
// values are treated as internal errors with a generic client message.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"error": msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
