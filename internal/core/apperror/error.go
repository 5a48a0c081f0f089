// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidPayload = "INVALID_PAYLOAD"

	// Business rule violations (422)
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeTransferNotDraft      = "TRANSFER_NOT_DRAFT"
	CodeSameWarehouseTransfer = "SAME_WAREHOUSE_TRANSFER"
	CodeWarehouseInactive     = "WAREHOUSE_INACTIVE"
	CodeVariantInactive       = "VARIANT_INACTIVE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeConcurrency = "CONCURRENCY_CONFLICT"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidPayload creates an invalid payload error (400).
// The detail string identifies which structural rule was violated
// (e.g. "empty-lines", "duplicate-variant-line").
func NewInvalidPayload(detail string) *AppError {
	return &AppError{
		Code:       CodeInvalidPayload,
		Message:    "Invalid payload",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"violation": detail},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(variantID string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"variant_id": variantID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewWarehouseInactive creates error for movements against a deactivated warehouse.
func NewWarehouseInactive(warehouseID string) *AppError {
	return &AppError{
		Code:       CodeWarehouseInactive,
		Message:    "Warehouse is inactive",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"warehouse_id": warehouseID},
	}
}

// NewVariantInactive creates error for movements of a deactivated variant.
func NewVariantInactive(variantID string) *AppError {
	return &AppError{
		Code:       CodeVariantInactive,
		Message:    "Variant is inactive",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"variant_id": variantID},
	}
}

// NewSameWarehouseTransfer creates error for transfers with origin == destination.
func NewSameWarehouseTransfer() *AppError {
	return &AppError{
		Code:       CodeSameWarehouseTransfer,
		Message:    "Origin and destination warehouses must differ",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewTransferNotDraft creates error for transitions from a terminal transfer state.
func NewTransferNotDraft(transferID string, status string) *AppError {
	return &AppError{
		Code:       CodeTransferNotDraft,
		Message:    "Transfer is not in draft status",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"transfer_id": transferID, "status": status},
	}
}

// NewConcurrencyConflict creates an optimistic locking error, surfaced
// only after the bounded retry policy is exhausted.
func NewConcurrencyConflict(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrency,
		Message:    "Record was modified concurrently. Please retry the operation.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewIdempotencyConflict is returned when an idempotency key is reused
// with a different payload.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key was already used with a different payload",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsConcurrencyConflict checks if error is CodeConcurrency
func IsConcurrencyConflict(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeConcurrency
	}
	return false
}

// IsIdempotencyConflict checks if error is CodeIdempotency
func IsIdempotencyConflict(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeIdempotency
	}
	return false
}

// IsInsufficientStock checks if error is CodeInsufficientStock
func IsInsufficientStock(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeInsufficientStock
	}
	return false
}
