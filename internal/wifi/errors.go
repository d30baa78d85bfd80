package wifi

import "errors"

// Domain-specific errors for wifi operations.
var (
	// ErrValidation is returned for malformed scan or connect input.
	ErrValidation = errors.New("wifi: invalid input")

	// ErrDeviceNotFound is returned when the connect target is unknown.
	ErrDeviceNotFound = errors.New("wifi: device not found")

	// ErrInvalidCredentials is returned when the encrypted password cannot
	// be decrypted, either wrong key material or a corrupt payload.
	ErrInvalidCredentials = errors.New("wifi: credentials cannot be decrypted")
)
