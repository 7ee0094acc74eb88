package service

import (
	"errors"
	"fmt"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/validation"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrImageNotFound   = fmt.Errorf("image %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrFileNotFound    = fmt.Errorf("image file %w", ErrNotFound)

	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("Invalid Credentials")
)

// ValidationError reports invalid client input. Field is empty when the
// error is not tied to one request field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// check turns an authorization decision into the matching error.
func check(d authz.Decision) error {
	switch d {
	case authz.Allow:
		return nil
	case authz.RequiresAuth:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// validate runs struct validation and reports the first failing field.
func validate(v any) error {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: fieldErrs[0].Field, Message: fieldErrs[0].Message, Err: err}
	}
	return &ValidationError{Message: err.Error(), Err: err}
}
