package services

import "fmt"

// Error taxonomy shared by every service. Controllers translate these to
// HTTP statuses; anything else surfaces as a StorageError so driver detail
// never reaches the client.

// ValidationError signals malformed or out-of-range input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError signals an unknown call, submission, user or criterion.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// AuthorizationError signals a caller lacking the required role or
// assignment.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// StateConflictError signals an action not permitted in the current
// lifecycle state, e.g. editing after the deadline.
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string { return e.Message }

// StorageError wraps relational or file store failures. The wrapped error
// is kept for logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage failure during " + e.Op }

func (e *StorageError) Unwrap() error { return e.Err }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func authorizationErrorf(format string, args ...interface{}) error {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

func stateConflictf(format string, args ...interface{}) error {
	return &StateConflictError{Message: fmt.Sprintf(format, args...)}
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
