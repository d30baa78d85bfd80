package bridge

import (
	"context"
	"errors"
	"fmt"
)

// Domain-specific errors for bridge operations.
var (
	// ErrInvalidPath is returned when an empty path is provided.
	ErrInvalidPath = errors.New("bridge: path cannot be empty")

	// ErrClosed is returned when operating on a closed bridge.
	ErrClosed = errors.New("bridge: closed")
)

// Handler is the callback signature for value subscriptions.
//
// The handler is invoked with the current value immediately on subscribe
// (when one exists) and again on every update. A nil value means the
// path has no value.
type Handler func(value any)

// Bridge is the realtime value tree.
//
// Values are JSON scalars: string, bool, float64, or nil.
type Bridge interface {
	// SetValue writes a value at the given path. The value becomes the
	// current state seen by all present and future subscribers.
	SetValue(ctx context.Context, path string, value any) error

	// GetValue reads the current value at the given path.
	// Returns (nil, nil) when the path has no value.
	GetValue(ctx context.Context, path string) (any, error)

	// Subscribe registers a handler for value changes at the path.
	// The returned function cancels the subscription.
	Subscribe(path string, handler Handler) (func(), error)

	// Close releases the bridge's resources.
	Close() error
}

// DevicePath builds the tree path for one device value.
//
// Example: DevicePath("uid-1", "alice_esp01", "led")
// returns "users/uid-1/devices/alice_esp01/led".
func DevicePath(uid, deviceID, field string) string {
	return fmt.Sprintf("users/%s/devices/%s/%s", uid, deviceID, field)
}

// Device value field names.
const (
	FieldStatus    = "status"
	FieldLED       = "led"
	FieldFoodLevel = "foodLevel"
	FieldLastFed   = "lastFed"
)
