// Package services provides the business logic layer between handlers and
// the analytics core. Services fetch history through a repository, call the
// pure projection and risk packages, and translate their errors.
package services

import (
	"context"
	"errors"

	"github.com/finsim/finsim/internal/analytics"
	"github.com/finsim/finsim/internal/storage"
)

// Error codes returned to API clients
const (
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeEmptyEnsemble    = "EMPTY_ENSEMBLE"
	CodeNotFound         = "NOT_FOUND"
	CodeStorageError     = "STORAGE_ERROR"
	CodeTimeout          = "SIMULATION_TIMEOUT"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// translateError maps core and storage errors onto ServiceError codes
func translateError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	var ide *analytics.InsufficientDataError
	if errors.As(err, &ide) {
		return NewServiceErrorWithDetails(CodeInsufficientData, err.Error(), map[string]interface{}{
			"operation": ide.Operation,
			"need":      ide.Need,
			"have":      ide.Have,
		})
	}

	var ipe *analytics.InvalidParameterError
	if errors.As(err, &ipe) {
		return NewServiceErrorWithDetails(CodeInvalidParameter, err.Error(), map[string]interface{}{
			"field":  ipe.Field,
			"reason": ipe.Reason,
		})
	}

	switch {
	case errors.Is(err, analytics.ErrInsufficientData):
		return NewServiceError(CodeInsufficientData, err.Error())
	case errors.Is(err, analytics.ErrInvalidParameter):
		return NewServiceError(CodeInvalidParameter, err.Error())
	case errors.Is(err, analytics.ErrEmptyEnsemble):
		return NewServiceError(CodeEmptyEnsemble, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return NewServiceError(CodeNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewServiceError(CodeTimeout, err.Error())
	default:
		return NewServiceErrorWithDetails(CodeStorageError, "Failed to load historical data",
			map[string]interface{}{"error": err.Error()})
	}
}
