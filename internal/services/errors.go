package services

import (
	"errors"

	"github.com/mrlokans/bookshelf/internal/auth"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error carries a client-facing message and the kind it belongs to.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func conflictError(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func forbiddenError(msg string) error {
	return &Error{Kind: auth.ErrForbidden, Message: msg}
}
