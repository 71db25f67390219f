package service

import (
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidResetToken  = errors.New("invalid or expired reset link")
	ErrPasswordlessLogin  = errors.New("this account signs in with Google or GitHub")
)

// ValidationError carries a message that is safe to show to the client.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidation reports whether err should be answered with 400.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
