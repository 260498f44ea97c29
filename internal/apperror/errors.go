// Package apperror holds the error taxonomy shared by the commerce core.
// Handlers translate these into HTTP responses; services return them
// from inside transactions so that any of them forces a rollback.
package apperror

import (
	"errors"
	"fmt"
)

// ErrAlreadyProcessed marks an idempotent no-op. It is not a failure.
var ErrAlreadyProcessed = errors.New("already processed")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

type InsufficientBalanceError struct {
	Currency string
	Required int64
	Current  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: required %d, current %d",
		e.Currency, e.Required, e.Current)
}

// GatewayError covers transport failures and explicit rejections from the
// payment gateway. Nothing is committed when it is returned, so callers
// may retry when Retryable is set.
type GatewayError struct {
	StatusCode string
	Message    string
	Retryable  bool
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway: %s: %v", e.Message, e.Err)
	}
	if e.StatusCode != "" {
		return fmt.Sprintf("payment gateway: %s (code %s)", e.Message, e.StatusCode)
	}
	return "payment gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
