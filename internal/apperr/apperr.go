// Package apperr classifies errors at the HTTP boundary and renders the API's
// JSON envelope.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmaldonado1992/MedVerify/internal/logger"
)

// Kind is the category an error maps to on the wire.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTooLarge
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Message is safe to show to clients;
// Err is the underlying cause and is only exposed as details for upstream errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound reports an absent record or one not owned by the caller.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports a duplicate unique key.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Upstream wraps a storage, database or email provider failure.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// TooLarge reports an upload above the configured limit.
func TooLarge(message string) *Error {
	return &Error{Kind: KindTooLarge, Message: message}
}

// Unauthorized reports failed authentication.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden reports an authenticated caller acting on another principal.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// RateLimited reports a throttled caller.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// KindOf returns the kind of err, treating unclassified errors as upstream.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}

// Envelope is the response body shared by every JSON endpoint.
type Envelope struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`

	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the window returned by list endpoints.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// OK writes a successful envelope with the given status.
func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Status: status, Success: true, Message: message, Data: data})
}

// OKPage writes a successful list envelope with pagination.
func OKPage(c *gin.Context, data interface{}, page Pagination) {
	c.JSON(http.StatusOK, Envelope{Status: http.StatusOK, Success: true, Data: data, Pagination: &page})
}

// Respond writes the error envelope for err and records it on the gin context.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Upstream("internal server error", err)
	}

	status := appErr.Kind.Status()
	body := Envelope{Status: status, Success: false, Error: appErr.Message}
	if appErr.Kind == KindUpstream && appErr.Err != nil {
		body.Details = appErr.Err.Error()
		logger.FromContext(c).Error(appErr.Message, zap.Error(appErr.Err))
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
