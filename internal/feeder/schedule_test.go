package feeder

import (
	"context"
	"errors"
	"testing"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/store"
)

func newTestSchedules(t *testing.T) *Schedules {
	t.Helper()

	db := testDB(t)
	return NewSchedules(store.NewScheduleRepository(db), store.NewDeviceRepository(db), logging.Default())
}

func TestScheduleCreate(t *testing.T) {
	s := newTestSchedules(t)
	ctx := context.Background()

	schedule, err := s.Create(ctx, ScheduleInput{
		DeviceID: "alice_esp01",
		Time:     "08:30",
		Amount:   50,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if schedule.ID == 0 {
		t.Error("Create() did not assign an id")
	}

	schedules, err := s.ListByDevice(ctx, "alice_esp01")
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(schedules) != 1 || schedules[0].Time != "08:30" {
		t.Errorf("ListByDevice() = %+v, want one 08:30 schedule", schedules)
	}
}

func TestScheduleCreate_UnknownDevice(t *testing.T) {
	s := newTestSchedules(t)

	_, err := s.Create(context.Background(), ScheduleInput{
		DeviceID: "ghost_esp01",
		Time:     "08:30",
		Amount:   50,
		Enabled:  true,
	})
	if !errors.Is(err, store.ErrDeviceNotFound) {
		t.Errorf("Create() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestScheduleCreate_Validation(t *testing.T) {
	s := newTestSchedules(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ScheduleInput
	}{
		{"bad time format", ScheduleInput{DeviceID: "alice_esp01", Time: "8am", Amount: 50}},
		{"hour out of range", ScheduleInput{DeviceID: "alice_esp01", Time: "25:00", Amount: 50}},
		{"minute out of range", ScheduleInput{DeviceID: "alice_esp01", Time: "08:61", Amount: 50}},
		{"zero amount", ScheduleInput{DeviceID: "alice_esp01", Time: "08:30", Amount: 0}},
		{"negative amount", ScheduleInput{DeviceID: "alice_esp01", Time: "08:30", Amount: -5}},
		{"oversized amount", ScheduleInput{DeviceID: "alice_esp01", Time: "08:30", Amount: 501}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(ctx, tt.input); !errors.Is(err, ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestScheduleList_OrderedByTime(t *testing.T) {
	s := newTestSchedules(t)
	ctx := context.Background()

	for _, at := range []string{"18:00", "07:15", "12:30"} {
		if _, err := s.Create(ctx, ScheduleInput{DeviceID: "alice_esp01", Time: at, Amount: 40, Enabled: true}); err != nil {
			t.Fatalf("Create(%s) error = %v", at, err)
		}
	}

	schedules, err := s.ListByDevice(ctx, "alice_esp01")
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}

	want := []string{"07:15", "12:30", "18:00"}
	if len(schedules) != len(want) {
		t.Fatalf("ListByDevice() = %d schedules, want %d", len(schedules), len(want))
	}
	for i, at := range want {
		if schedules[i].Time != at {
			t.Errorf("schedule %d time = %s, want %s", i, schedules[i].Time, at)
		}
	}
}

func TestScheduleList_UnknownDevice(t *testing.T) {
	s := newTestSchedules(t)

	if _, err := s.ListByDevice(context.Background(), "ghost_esp01"); !errors.Is(err, store.ErrDeviceNotFound) {
		t.Errorf("ListByDevice() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestScheduleDelete(t *testing.T) {
	s := newTestSchedules(t)
	ctx := context.Background()

	schedule, err := s.Create(ctx, ScheduleInput{DeviceID: "alice_esp01", Time: "08:30", Amount: 50, Enabled: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Delete(ctx, schedule.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, schedule.ID); !errors.Is(err, store.ErrScheduleNotFound) {
		t.Errorf("repeat Delete() error = %v, want ErrScheduleNotFound", err)
	}
}
