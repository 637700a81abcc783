package cli

import (
	"fmt"

	"star-task/internal/errors"
	"star-task/internal/validation"
)

// ErrorHandler provides centralized error handling for command handlers
type ErrorHandler struct{}

// CommandError is a user-facing message that keeps the underlying error reachable
// through errors.As, so exit codes still see the AppError type.
type CommandError struct {
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Handle provides user-friendly error messages for validation and other errors
func (eh *ErrorHandler) Handle(operation string, err error) error {
	if err == nil {
		return nil
	}

	if validationErr, ok := err.(*validation.ValidationError); ok {
		return &CommandError{Message: fmt.Sprintf("failed to %s: %s", operation, validationErr.GetUserFriendlyMessage()), Err: err}
	}

	if _, ok := errors.AsAppError(err); ok {
		return &CommandError{Message: fmt.Sprintf("failed to %s: %s", operation, errors.GetUserMessage(err)), Err: err}
	}

	return fmt.Errorf("failed to %s: %w", operation, err)
}

// HandleSimple provides user-friendly error messages without operation context
func (eh *ErrorHandler) HandleSimple(err error) error {
	if err == nil {
		return nil
	}

	if validationErr, ok := err.(*validation.ValidationError); ok {
		return &CommandError{Message: validationErr.GetUserFriendlyMessage(), Err: err}
	}

	if _, ok := errors.AsAppError(err); ok {
		return &CommandError{Message: errors.GetUserMessage(err), Err: err}
	}

	return err
}

// IsValidationError checks if an error is a validation error
func (eh *ErrorHandler) IsValidationError(err error) bool {
	if validation.IsValidationError(err) {
		return true
	}
	return errors.IsErrorType(err, errors.ErrorTypeValidation)
}

// IsNotFoundError checks if an error is a not found error
func (eh *ErrorHandler) IsNotFoundError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeNotFound)
}

// IsDatabaseError checks if an error is a database error
func (eh *ErrorHandler) IsDatabaseError(err error) bool {
	return errors.IsErrorType(err, errors.ErrorTypeDatabase)
}

// ExitCode maps an error to the process exit status used by cmd/st
func (eh *ErrorHandler) ExitCode(err error) int {
	if err == nil {
		return 0
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		if validation.IsValidationError(err) {
			return 2
		}
		return 1
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeInvalidInput:
		return 2
	case errors.ErrorTypeNotFound:
		return 3
	case errors.ErrorTypeDatabase:
		return 4
	case errors.ErrorTypeTimeout, errors.ErrorTypeCancelled:
		return 5
	default:
		return 1
	}
}

// GetErrorCode returns the error code for structured errors
func (eh *ErrorHandler) GetErrorCode(err error) string {
	return errors.GetErrorCode(err)
}
