package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel markers. Domain errors are built with NewError/WithError and marked with one of
// these so callers can classify them with errors.Is regardless of wrapping.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNoOp             = errors.New("nothing to do")
	ErrCycleDetected    = errors.New("cycle detected")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDatabase         = errors.New("database error")
	ErrSystem           = errors.New("system error")
	ErrInternal         = errors.New("internal error")
)

// ErrorResponse is the shape handlers render for a failed operation.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Display       string                 `json:"display"`
	Internal      string                 `json:"internal,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	InternalError string                 `json:"-"`
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

func IsNoOp(err error) bool {
	return errors.Is(err, ErrNoOp)
}

func IsCycleDetected(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// HTTPStatusFromErr maps a marked error onto the status code a handler should return.
func HTTPStatusFromErr(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsValidation(err), IsCycleDetected(err):
		return http.StatusBadRequest
	case IsInvalidOperation(err), IsNoOp(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ToErrorResponse converts an error into its rendered form, using the hint as display text.
func ToErrorResponse(err error) ErrorResponse {
	display := "An unexpected error occurred"
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		display = hints[0]
	}

	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display:       display,
			Details:       GetReportableDetails(err),
			InternalError: err.Error(),
		},
	}
}
