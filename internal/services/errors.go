package services

import (
	"errors"
	"fmt"

	"airport_manager/internal/repository"
)

// ValidationError is a user-facing input error. Operations that return one
// have not written anything.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is lets errors.Is match two validation errors with the same message.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Msg == e.Msg
}

func validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrAmountNotPositive    = &ValidationError{Msg: "amount must be positive"}
	ErrAmountExceedsBalance = &ValidationError{Msg: "amount exceeds balance"}
	ErrCustomerRequired     = &ValidationError{Msg: "customer name required"}
	ErrItemsRequired        = &ValidationError{Msg: "at least one item required"}
	ErrTotalNotPositive     = &ValidationError{Msg: "total must be greater than 0"}
	ErrTotalBelowPaid       = &ValidationError{Msg: "total is below amount already paid"}
	ErrInvalidStatus        = &ValidationError{Msg: "invalid status"}
	ErrInvalidTransition    = &ValidationError{Msg: "invalid status transition"}
	ErrEmptyNote            = &ValidationError{Msg: "note text required"}
	ErrInvalidCurrency      = &ValidationError{Msg: "unsupported currency"}
	ErrInvalidPeriod        = &ValidationError{Msg: "unknown period"}
)

var (
	ErrNotFound           = repository.ErrNotFound
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
