package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email is already taken")
	// ErrInvalidInput is returned when request data fails validation.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrWrongOrExpiredCode = errors.New("wrong code provided")
	ErrProviderConflict   = errors.New("account is linked with another provider")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInternal           = errors.New("internal error")
)

// ProviderConflictError tells which provider an existing account is bound to.
type ProviderConflictError struct {
	Existing Provider
}

func (e *ProviderConflictError) Error() string {
	return fmt.Sprintf("your account is already linked with %s", e.Existing.Name())
}

func (e *ProviderConflictError) Is(target error) bool {
	return target == ErrProviderConflict
}

// InternalError wraps a failure of a downstream store, cache or mailer.
type InternalError struct {
	Op  string
	Err error
}

// NewInternalError wraps err unless it already is an InternalError.
func NewInternalError(op string, err error) error {
	var ie *InternalError
	if errors.As(err, &ie) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() []error {
	return []error{ErrInternal, e.Err}
}

// Timeout reports whether the downstream call ran out of time.
func (e *InternalError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
