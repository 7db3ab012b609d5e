package services

import (
	"errors"
	"fmt"

	apperrors "github.com/lessonlens/observation-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Scope errors
	ErrScopeInvalidDateRange = errors.New("scope date range is invalid: from is after to")
	ErrScopeOutsidePermitted = errors.New("scope exceeds the caller's permitted data")

	// Data-fetch errors. Aggregations over an empty result set are not
	// errors; this fires only when the store itself fails.
	ErrObservationFetchFailed = errors.New("observation query failed")

	// Report errors
	ErrReportNotFound      = errors.New("report not found")
	ErrReportInvalidType   = errors.New("invalid report type")
	ErrReportStoreFailed   = errors.New("failed to store generated report")
	ErrExportInvalidFormat = errors.New("invalid export format")

	// Narrative generation errors
	ErrNarrativeUnavailable = errors.New("narrative generation service unavailable")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrReportNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrScopeOutsidePermitted) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrScopeInvalidDateRange) ||
		errors.Is(err, ErrReportInvalidType) ||
		errors.Is(err, ErrExportInvalidFormat) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsFetchFailure checks if error represents an external data-store failure.
// Handlers map these to a per-chart error state instead of failing the whole
// dashboard.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrObservationFetchFailed)
}
