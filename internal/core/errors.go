package core

import (
	"errors"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptySource     = errors.New("empty source")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrSameCurrency    = errors.New("currencies must be different")
	ErrRecordNotFound  = errors.New("record not found")

	// ErrConversionFailed is the one error a caller sees for any failed conversion.
	ErrConversionFailed = errors.New("conversion failed")
)

// ValidationError reports user input rejected before any state was touched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ConversionError hides whether a conversion failed on the network, on a
// non-success API response or on a missing rate. Cause is kept for logs.
type ConversionError struct {
	Cause error
}

func (e *ConversionError) Error() string { return ErrConversionFailed.Error() }

func (e *ConversionError) Unwrap() error { return e.Cause }

func (e *ConversionError) Is(target error) bool { return target == ErrConversionFailed }
