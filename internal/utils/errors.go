package utils

import (
	"errors"
	"net/http"
)

// Error kinds shared by every layer. Match them with errors.Is.
var (
	ErrValidation            = errors.New("validation error")
	ErrInvalidInput          = errors.New("invalid input")
	ErrConfiguration         = errors.New("configuration error")
	ErrProvider              = errors.New("payment provider error")
	ErrStateConflict         = errors.New("state conflict")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrReconciliationFailure = errors.New("reconciliation failure")
	ErrStorageMiss           = errors.New("storage object not found")
	ErrNotFound              = errors.New("not found")
	ErrDispatch              = errors.New("dispatch failed")
)

type AppError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: ErrValidation}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

func NewConflictError(message string) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Message: message, Err: ErrStateConflict}
}

func NewBadGatewayError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadGateway, Message: message, Err: ErrProvider}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}

// FromError maps a domain error onto an AppError. Validation and provider
// messages are passed through verbatim; everything else keeps its detail
// out of the response.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return &AppError{StatusCode: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, ErrNotFound):
		return &AppError{StatusCode: http.StatusNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, ErrStateConflict), errors.Is(err, ErrInvalidTransition):
		return &AppError{StatusCode: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, ErrProvider):
		return &AppError{StatusCode: http.StatusBadGateway, Message: err.Error(), Err: err}
	case errors.Is(err, ErrConfiguration):
		return &AppError{StatusCode: http.StatusInternalServerError, Message: "Payment configuration is incomplete", Err: err}
	case errors.Is(err, ErrDispatch):
		return &AppError{StatusCode: http.StatusInternalServerError, Message: "Failed to queue document for processing", Err: err}
	case errors.Is(err, ErrReconciliationFailure):
		return &AppError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Err: err}
	default:
		return &AppError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", Err: err}
	}
}
