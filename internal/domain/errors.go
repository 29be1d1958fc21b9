package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repositories and services. Handlers map these
// onto HTTP statuses: ErrNotFound 404, ErrConflict 409, ErrRefundRefused 400,
// ErrStoreUnavailable 500. ValidationError maps to 400.
var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("duplicate record")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrRefundRefused    = errors.New("payment had failed; cannot issue refund")
)

// ValidationError rejects bad caller input before any query is executed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a caller-input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
