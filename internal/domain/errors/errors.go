package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("not authorized, token missing or invalid")
	ErrForbidden          = errors.New("not authorized to access this task")
	ErrInternalServer     = errors.New("internal server error")
	ErrBadRequest         = errors.New("malformed request body")
	ErrConflict           = errors.New("resource conflict")

	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value")

	ErrInvalidGzipRequest    = errors.New("invalid gzip request body")
	ErrGzipCompressionFailed = errors.New("gzip compression failed")

	ErrUnknownColumn      = errors.New("unknown board column")
	ErrPositionOutOfRange = errors.New("board position out of range")
	ErrTaskNotAtPosition  = errors.New("task is not at the given board position")
	ErrDragInProgress     = errors.New("a drag is already in progress")
	ErrNoDragInProgress   = errors.New("no drag in progress")

	ErrNoSession = errors.New("not logged in")
)

// Validation errors wrap ErrValidationFailed so callers can classify them
// with errors.Is while still surfacing the specific message.
var (
	ErrMissingTaskFields  = validation("please provide title, description, and due date")
	ErrInvalidStatus      = validation("status must be pending, in-progress, or completed")
	ErrInvalidTitle       = validation("title must be between 3 and 100 characters")
	ErrInvalidDescription = validation("description is required and cannot exceed 500 characters")
	ErrDueDateInPast      = validation("due date must be in the future")
	ErrInvalidUsername    = validation("username must be 3-50 alphanumeric characters")
	ErrInvalidEmail       = validation("invalid email")
	ErrInvalidPassword    = validation("password must be 6-100 characters")
)

func validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, msg)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// Is re-exports the standard library check so callers importing this
// package under the name errors keep errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
