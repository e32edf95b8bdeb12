package custom_err

import (
	"errors"
	"fmt"
)

var (
	// Transaction errors
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidAmount  = errors.New("amount must not be negative")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrDuplicateEvent = errors.New("webhook event already processed")

	// Webhook errors
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")

	// Operator errors
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenNotActive     = errors.New("token not active yet")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// MissingFieldError возвращается API-адаптером, когда в запросе отсутствует
// обязательное поле. Текст ошибки попадает клиенту как есть.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing field: %s", e.Field)
}

func NewMissingFieldError(field string) *MissingFieldError {
	return &MissingFieldError{Field: field}
}
