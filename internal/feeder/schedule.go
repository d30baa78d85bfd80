package feeder

import (
	"context"
	"fmt"
	"time"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// maxScheduleAmount caps a single scheduled portion, in grams.
const maxScheduleAmount = 500

// ScheduleInput is the client-supplied part of a feed schedule.
type ScheduleInput struct {
	DeviceID string  `json:"deviceId"`
	Time     string  `json:"time"` // 24h "HH:MM"
	Amount   float64 `json:"amount"`
	Enabled  bool    `json:"enabled"`
}

// Schedules manages per-device feed schedules.
type Schedules struct {
	schedules store.ScheduleRepository
	devices   store.DeviceRepository
	log       *logging.Logger
}

// NewSchedules creates the schedule service.
func NewSchedules(schedules store.ScheduleRepository, devices store.DeviceRepository, log *logging.Logger) *Schedules {
	return &Schedules{
		schedules: schedules,
		devices:   devices,
		log:       log.With("component", "schedules"),
	}
}

// Create validates and persists a feed schedule.
//
// The target device must exist; schedules for unknown devices fail with
// store.ErrDeviceNotFound rather than creating orphan rows.
func (s *Schedules) Create(ctx context.Context, input ScheduleInput) (*store.FeedSchedule, error) {
	if err := validateScheduleTime(input.Time); err != nil {
		return nil, err
	}
	if input.Amount <= 0 || input.Amount > maxScheduleAmount {
		return nil, fmt.Errorf("%w: amount must be between 0 and %d grams", ErrValidation, maxScheduleAmount)
	}

	if _, err := s.devices.GetByDeviceID(ctx, input.DeviceID); err != nil {
		return nil, err
	}

	schedule := &store.FeedSchedule{
		DeviceID: input.DeviceID,
		Time:     input.Time,
		Amount:   input.Amount,
		Enabled:  input.Enabled,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.log.Info("schedule created", "device_id", input.DeviceID, "time", input.Time, "amount", input.Amount)
	return schedule, nil
}

// ListByDevice returns a device's schedules ordered by feed time.
func (s *Schedules) ListByDevice(ctx context.Context, deviceID string) ([]store.FeedSchedule, error) {
	if _, err := s.devices.GetByDeviceID(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.schedules.ListByDevice(ctx, deviceID)
}

// Delete removes a schedule by id.
func (s *Schedules) Delete(ctx context.Context, id int64) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("schedule deleted", "schedule_id", id)
	return nil
}

// validateScheduleTime checks the 24h "HH:MM" format.
func validateScheduleTime(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%w: time must be HH:MM (24h)", ErrValidation)
	}
	return nil
}
