package store

import "time"

// Device connectivity states.
const (
	// DeviceStatusOffline is the state for devices with no live connection.
	// Newly registered devices start offline.
	DeviceStatusOffline = "offline"

	// DeviceStatusOnline is the state for devices connected to the bridge.
	DeviceStatusOnline = "online"
)

// InitialFoodLevel is the food level assigned to newly registered devices.
const InitialFoodLevel = 100

// User represents an application account.
//
// Authentication happens at an external provider; the uid is the provider's
// stable identifier and is the key clients use to address their data.
type User struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Device represents a registered feeder unit.
//
// DeviceID is the human-readable identity derived at registration
// (e.g. "alice_esp01"). ESPEmail is the device's own login identity;
// its password is sealed into ESPCredential and never leaves the server
// in plaintext except inside the provisioning payload.
type Device struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	DeviceID      string     `json:"deviceId"`
	Name          string     `json:"name"`
	ESPEmail      string     `json:"espEmail"`
	ESPCredential []byte     `json:"-"` // sealed, never serialised
	Status        string     `json:"status"`
	FoodLevel     float64    `json:"foodLevel"`
	LEDStatus     bool       `json:"ledStatus"`
	LastFed       *time.Time `json:"lastFed"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// FeedSchedule represents a recurring feed entry for a device.
//
// Time is a wall-clock "HH:MM" string; the feeder interprets it in its
// local timezone.
type FeedSchedule struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Time      string    `json:"time"`
	Amount    float64   `json:"amount"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// WifiNetwork represents one network discovered during a setup scan.
//
// DeviceSetupID scopes results to a single setup session so concurrent
// setups don't see each other's networks.
type WifiNetwork struct {
	ID            int64     `json:"id"`
	DeviceSetupID string    `json:"deviceSetupId"`
	SSID          string    `json:"ssid"`
	RSSI          int       `json:"rssi"`
	Security      string    `json:"security"`
	CreatedAt     time.Time `json:"createdAt"`
}
