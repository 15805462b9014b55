package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a referenced entity does not exist
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates malformed input such as a bad date or time
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeCapacityExceeded indicates a trainer, shift or gym cap was hit
	ErrorTypeCapacityExceeded ErrorType = "CAPACITY_EXCEEDED"

	// ErrorTypeQuotaExceeded indicates the weekly limit was reached or no credits remain
	ErrorTypeQuotaExceeded ErrorType = "QUOTA_EXCEEDED"

	// ErrorTypeDuplicateBooking indicates the client is already booked at that timestamp
	ErrorTypeDuplicateBooking ErrorType = "DUPLICATE_BOOKING"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewCapacityExceededError creates a new capacity error
func NewCapacityExceededError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeCapacityExceeded,
		Message: message,
	}
}

// NewQuotaExceededError creates a new quota error
func NewQuotaExceededError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeQuotaExceeded,
		Message: message,
	}
}

// NewDuplicateBookingError creates a new duplicate booking error
func NewDuplicateBookingError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeDuplicateBooking,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}
