package feeder

import "errors"

// ErrValidation is returned for malformed control or schedule input.
var ErrValidation = errors.New("feeder: invalid input")
