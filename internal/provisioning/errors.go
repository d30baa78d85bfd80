package provisioning

import "errors"

// Domain-specific errors for provisioning operations.
var (
	// ErrSessionNotFound is returned when no setup session exists for a device.
	ErrSessionNotFound = errors.New("provisioning: session not found")

	// ErrClosed is returned when operating on a closed manager.
	ErrClosed = errors.New("provisioning: manager closed")
)
