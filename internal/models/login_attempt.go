package models

import "time"

// LoginAttempt tracks consecutive failed sign-ins for a single user.
// One row per user: Attempts counts failures since the last reset, and a
// non-nil BlockedUntil in the future rejects every sign-in regardless of
// password. Imposing a block resets Attempts to zero, so counting starts
// fresh once the block expires.
type LoginAttempt struct {
	ID           string
	UserID       string
	Attempts     int
	BlockedUntil *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Blocked reports whether the record holds an active lockout at the given time
func (a *LoginAttempt) Blocked(now time.Time) bool {
	return a.BlockedUntil != nil && a.BlockedUntil.After(now)
}
