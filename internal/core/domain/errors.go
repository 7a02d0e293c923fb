package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("no user logged in")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrOwnershipMismatch  = errors.New("task owner does not match logged-in user")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidBoardKind   = errors.New("invalid board kind")
	ErrBoardNotFound      = errors.New("board not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrDuplicateTask      = errors.New("task with this title and owner already exists on the board")
	ErrInvalidDate        = errors.New("invalid due date, expected dd/mm/yyyy")
	ErrShareWithOwner     = errors.New("cannot share a task with its owner")
)

// StorageError wraps any failure reported by the persistence collaborator so
// callers can tell storage trouble apart from domain rule violations.
type StorageError struct {
	Op  string // the store operation that failed, e.g. "create task"
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageFailure reports whether err originated in the persistence layer.
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
