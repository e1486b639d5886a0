package services

import (
	"errors"

	"freelance/internal/auth"
	"freelance/internal/core"
)

var (
	ErrMutationInFlight     = errors.New("another change for this record is still in progress")
	ErrConfirmationRequired = errors.New("deletion must be explicitly confirmed")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotConfirmed         = errors.New("email address not confirmed yet")
)

var validationErrors = []error{
	core.ErrEmptyRate,
	core.ErrInvalidRate,
	core.ErrNegativeRate,
	core.ErrEmptyClientName,
	core.ErrClientNameLength,
	core.ErrInvalidDate,
	core.ErrInvalidMonth,
	auth.ErrPasswordTooShort,
	auth.ErrPasswordMismatch,
	ErrInvalidEmail,
	ErrConfirmationRequired,
}

// IsValidation reports whether err was raised by input checks that run before any
// storage call.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the addressed record does not exist in the account.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrClientNotFound) ||
		errors.Is(err, core.ErrWorkDayNotFound) ||
		errors.Is(err, core.ErrAccountNotFound)
}
