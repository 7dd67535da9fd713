package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when the request conflicts with the current state
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
)

// Domain specific errors. Each wraps one of the common errors so handlers
// can map them with errors.Is.
var (
	ErrOrderNotFound        = wrap(ErrNotFound, "order not found")
	ErrInvoiceNotFound      = wrap(ErrNotFound, "invoice not found")
	ErrReminderNotFound     = wrap(ErrNotFound, "payment reminder not found")
	ErrNotificationNotFound = wrap(ErrNotFound, "notification not found")
	ErrUserNotFound         = wrap(ErrNotFound, "user not found")

	// ErrNotificationNotOwned is returned when trying to access a notification owned by another user
	ErrNotificationNotOwned = wrap(ErrPermissionDenied, "notification does not belong to current user")

	// ErrUserContextRequired is returned when user context is not available
	ErrUserContextRequired = wrap(ErrUnauthorized, "user context required")

	ErrInvalidStatus   = wrap(ErrInvalidInput, "invalid status")
	ErrInvalidPriority = wrap(ErrInvalidInput, "invalid priority")

	// ErrInvalidTransition is returned when the active statuses do not allow an operation
	ErrInvalidTransition = wrap(ErrConflict, "transition not allowed")

	// ErrStaleOrder is returned when the order changed between read and write
	ErrStaleOrder = wrap(ErrConflict, "order was modified by another request")

	ErrOrderExists = wrap(ErrConflict, "order already exists")
)

type wrappedError struct {
	msg    string
	parent error
}

func wrap(parent error, msg string) error {
	return &wrappedError{msg: msg, parent: parent}
}

func (e *wrappedError) Error() string { return e.msg }

func (e *wrappedError) Unwrap() error { return e.parent }
