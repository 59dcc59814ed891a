// Package apperr carries an HTTP status alongside domain errors so that
// handlers can answer without knowing which layer failed.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error represents an application error with HTTP status
type Error struct {
	Code    int
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

// New creates a new app error
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, ErrInvalidInput)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, ErrNotFound)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, ErrForbidden)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message, ErrConflict)
}

// InsufficientFunds is returned when a wallet cannot cover a debit
func InsufficientFunds() *Error {
	return New(http.StatusBadRequest, "Insufficient balance", ErrInsufficientFunds)
}

// InvalidTransition is returned when an appointment is not in a state that allows the action
func InvalidTransition(message string) *Error {
	return New(http.StatusBadRequest, message, ErrInvalidTransition)
}

// Internal wraps an unexpected error
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// Status returns the HTTP status for err, 500 for anything that is not an *Error
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return http.StatusInternalServerError
}

// Respond writes err as a JSON error body
func Respond(c *gin.Context, err error) {
	var ae *Error
	if errors.As(err, &ae) {
		c.JSON(ae.Code, gin.H{"error": ae.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
