package mqtt

import "fmt"

// DefaultTopicPrefix is the base for all petfeeder topics.
// The prefix is configurable via bridge.topic_prefix in config.yaml.
const DefaultTopicPrefix = "petfeeder"

// Topics provides builders for PetFeeder MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Device value topics mirror the realtime tree paths:
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.DeviceStatus("user-1", "alice_esp01")
//	// Returns: "petfeeder/users/user-1/devices/alice_esp01/status"
type Topics struct {
	// Prefix overrides DefaultTopicPrefix when non-empty.
	Prefix string
}

func (t Topics) base() string {
	if t.Prefix != "" {
		return t.Prefix
	}
	return DefaultTopicPrefix
}

// Value returns the topic for an arbitrary realtime tree path.
//
// Example: petfeeder/users/user-1/devices/alice_esp01/led
func (t Topics) Value(path string) string {
	return fmt.Sprintf("%s/%s", t.base(), path)
}

// DeviceStatus returns the topic for a device's connectivity status.
//
// Example: petfeeder/users/user-1/devices/alice_esp01/status
func (t Topics) DeviceStatus(uid, deviceID string) string {
	return fmt.Sprintf("%s/users/%s/devices/%s/status", t.base(), uid, deviceID)
}

// DeviceLED returns the topic for a device's LED state.
//
// Example: petfeeder/users/user-1/devices/alice_esp01/led
func (t Topics) DeviceLED(uid, deviceID string) string {
	return fmt.Sprintf("%s/users/%s/devices/%s/led", t.base(), uid, deviceID)
}

// DeviceFoodLevel returns the topic for a device's food level.
//
// Example: petfeeder/users/user-1/devices/alice_esp01/foodLevel
func (t Topics) DeviceFoodLevel(uid, deviceID string) string {
	return fmt.Sprintf("%s/users/%s/devices/%s/foodLevel", t.base(), uid, deviceID)
}

// DeviceLastFed returns the topic for a device's last feed time.
//
// Example: petfeeder/users/user-1/devices/alice_esp01/lastFed
func (t Topics) DeviceLastFed(uid, deviceID string) string {
	return fmt.Sprintf("%s/users/%s/devices/%s/lastFed", t.base(), uid, deviceID)
}

// SystemStatus returns the service status topic.
//
// Example: petfeeder/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.base())
}

// UserDevices returns a pattern matching all values for one user's devices.
//
// Pattern: petfeeder/users/user-1/devices/#
func (t Topics) UserDevices(uid string) string {
	return fmt.Sprintf("%s/users/%s/devices/#", t.base(), uid)
}

// AllDeviceValues returns a pattern matching every device value topic.
//
// Pattern: petfeeder/users/+/devices/+/+
func (t Topics) AllDeviceValues() string {
	return fmt.Sprintf("%s/users/+/devices/+/+", t.base())
}

// AllTopics returns a pattern matching all petfeeder topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: petfeeder/#
func (t Topics) AllTopics() string {
	return fmt.Sprintf("%s/#", t.base())
}
