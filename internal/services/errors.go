package services

import (
	"errors"
)

type ErrorCode string

const (
	ErrorInvalid              ErrorCode = "invalid"
	ErrorForbidden            ErrorCode = "forbidden"
	ErrorNotFound             ErrorCode = "not_found"
	ErrorUnauthorized         ErrorCode = "unauthorized"
	ErrorRejected             ErrorCode = "rejected"
	ErrorConfirmationRequired ErrorCode = "confirmation_required"
	ErrorBadGateway           ErrorCode = "bad_gateway"
)

// ServiceError carries a message that is safe to show to the user.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

// NewRejectedError reports content that failed the moderation check.
func NewRejectedError(msg string) error { return &ServiceError{Code: ErrorRejected, Message: msg} }

func NewConfirmationRequiredError(msg string) error {
	return &ServiceError{Code: ErrorConfirmationRequired, Message: msg}
}

func NewBadGatewayError(msg string) error { return &ServiceError{Code: ErrorBadGateway, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
