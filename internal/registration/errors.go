package registration

import "errors"

// Domain-specific errors for registration operations.
var (
	// ErrOwnerNotFound is returned when a device is registered against an
	// unknown user uid.
	ErrOwnerNotFound = errors.New("registration: owner not found")

	// ErrValidation is returned for malformed registration input.
	ErrValidation = errors.New("registration: invalid input")

	// ErrCredentialInvalid is returned when a sealed credential cannot be
	// opened, either because the key is wrong or the data is corrupt.
	ErrCredentialInvalid = errors.New("registration: credential cannot be opened")
)
