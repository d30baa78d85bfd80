package store

import "errors"

// Domain-specific errors for persistence operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUserNotFound is returned when a user lookup matches no rows.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrUserExists is returned when a uid or email is already registered.
	ErrUserExists = errors.New("store: user already exists")

	// ErrDeviceNotFound is returned when a device lookup matches no rows.
	ErrDeviceNotFound = errors.New("store: device not found")

	// ErrDeviceExists is returned when a device id or esp email is taken.
	ErrDeviceExists = errors.New("store: device already exists")

	// ErrScheduleNotFound is returned when a schedule lookup matches no rows.
	ErrScheduleNotFound = errors.New("store: schedule not found")
)
