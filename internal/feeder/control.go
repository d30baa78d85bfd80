package feeder

import (
	"context"
	"fmt"
	"time"

	"github.com/feederworks/petfeeder-core/internal/bridge"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/telemetry"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// Controls executes state-changing operations on feeders.
//
// Each operation updates the store first, then mirrors the new state to
// the realtime bridge so clients and firmware observe it immediately.
type Controls struct {
	users     store.UserRepository
	devices   store.DeviceRepository
	bridge    bridge.Bridge
	telemetry *telemetry.Client
	log       *logging.Logger
}

// NewControls creates the feeder control service. The telemetry client
// may be nil when InfluxDB is disabled.
func NewControls(users store.UserRepository, devices store.DeviceRepository, br bridge.Bridge, tc *telemetry.Client, log *logging.Logger) *Controls {
	return &Controls{
		users:     users,
		devices:   devices,
		bridge:    br,
		telemetry: tc,
		log:       log.With("component", "feeder"),
	}
}

// Get returns a feeder by device id.
func (c *Controls) Get(ctx context.Context, deviceID string) (*store.Device, error) {
	return c.devices.GetByDeviceID(ctx, deviceID)
}

// SetLED switches the feeder's indicator LED.
func (c *Controls) SetLED(ctx context.Context, deviceID string, on bool) error {
	device, uid, err := c.resolve(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := c.devices.UpdateLED(ctx, device.DeviceID, on); err != nil {
		return err
	}
	if err := c.bridge.SetValue(ctx, bridge.DevicePath(uid, deviceID, bridge.FieldLED), on); err != nil {
		return err
	}

	c.log.Info("led updated", "device_id", deviceID, "on", on)
	return nil
}

// Feed triggers a manual dispense and records the feed time.
//
// Returns the timestamp stored as the feeder's last feed.
func (c *Controls) Feed(ctx context.Context, deviceID string) (time.Time, error) {
	_, uid, err := c.resolve(ctx, deviceID)
	if err != nil {
		return time.Time{}, err
	}

	fedAt := time.Now().UTC().Truncate(time.Second)
	if err := c.devices.RecordFeedTime(ctx, deviceID, fedAt); err != nil {
		return time.Time{}, err
	}
	if err := c.bridge.SetValue(ctx, bridge.DevicePath(uid, deviceID, bridge.FieldLastFed), fedAt.Format(time.RFC3339)); err != nil {
		return time.Time{}, err
	}

	c.telemetry.WriteFeedEvent(deviceID, 0, telemetry.SourceManual)
	c.log.Info("manual feed recorded", "device_id", deviceID, "fed_at", fedAt)
	return fedAt, nil
}

// SetStatus records a connectivity transition reported by the feeder.
func (c *Controls) SetStatus(ctx context.Context, deviceID, status string) error {
	if status != store.DeviceStatusOnline && status != store.DeviceStatusOffline {
		return fmt.Errorf("%w: status must be online or offline", ErrValidation)
	}

	_, uid, err := c.resolve(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := c.devices.UpdateStatus(ctx, deviceID, status); err != nil {
		return err
	}
	if err := c.bridge.SetValue(ctx, bridge.DevicePath(uid, deviceID, bridge.FieldStatus), status); err != nil {
		return err
	}

	c.telemetry.WriteStatusChange(deviceID, status)
	c.log.Info("status updated", "device_id", deviceID, "status", status)
	return nil
}

// ReportFoodLevel records a hopper level reading from the feeder.
func (c *Controls) ReportFoodLevel(ctx context.Context, deviceID string, level float64) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("%w: food level must be between 0 and 100", ErrValidation)
	}

	_, uid, err := c.resolve(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := c.devices.UpdateFoodLevel(ctx, deviceID, level); err != nil {
		return err
	}
	if err := c.bridge.SetValue(ctx, bridge.DevicePath(uid, deviceID, bridge.FieldFoodLevel), level); err != nil {
		return err
	}

	c.telemetry.WriteFoodLevel(deviceID, level)
	return nil
}

// resolve loads the device and its owner's uid, which the bridge paths
// are keyed by.
func (c *Controls) resolve(ctx context.Context, deviceID string) (*store.Device, string, error) {
	device, err := c.devices.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, "", err
	}
	owner, err := c.users.GetByID(ctx, device.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("resolving owner of %s: %w", deviceID, err)
	}
	return device, owner.UID, nil
}
