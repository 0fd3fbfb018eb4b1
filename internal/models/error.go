package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrInvalidCredentials is returned on a wrong email or password.
	// The message never disambiguates which one was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AccountLockedError is returned when a sign-in is rejected because the
// account is under a lockout. RetryAfter is ceiling-rounded to whole minutes.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	minutes := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("account locked due to too many failed attempts, try again in %d minutes", minutes)
}

// RetryAfterMinutes returns the remaining lockout, ceiling-rounded to minutes
func (e *AccountLockedError) RetryAfterMinutes() int {
	return int((e.RetryAfter + time.Minute - 1) / time.Minute)
}

// IsAccountLocked reports whether err is an AccountLockedError
func IsAccountLocked(err error) (*AccountLockedError, bool) {
	var locked *AccountLockedError
	if errors.As(err, &locked) {
		return locked, true
	}
	return nil, false
}
