package store

import (
	"context"
	"errors"
	"testing"
)

func TestScheduleRepository_Create(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)
	owner := seedTestUser(t, db, "uid-alice", "alice@example.com")
	seedTestDevice(t, db, owner.ID, "alice_esp01")

	schedule := &FeedSchedule{
		DeviceID: "alice_esp01",
		Time:     "08:00",
		Amount:   50,
		Enabled:  true,
	}

	if err := repo.Create(context.Background(), schedule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if schedule.ID == 0 {
		t.Error("Create() should fill in the generated ID")
	}
}

func TestScheduleRepository_GetByID(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)
	owner := seedTestUser(t, db, "uid-alice", "alice@example.com")
	seedTestDevice(t, db, owner.ID, "alice_esp01")

	created := &FeedSchedule{DeviceID: "alice_esp01", Time: "18:30", Amount: 75, Enabled: true}
	if err := repo.Create(context.Background(), created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Time != "18:30" || got.Amount != 75 || !got.Enabled {
		t.Errorf("GetByID() = %+v, want time 18:30 amount 75 enabled", got)
	}
}

func TestScheduleRepository_GetByID_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("GetByID() error = %v, want ErrScheduleNotFound", err)
	}
}

func TestScheduleRepository_ListByDevice(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)
	owner := seedTestUser(t, db, "uid-alice", "alice@example.com")
	seedTestDevice(t, db, owner.ID, "alice_esp01")
	seedTestDevice(t, db, owner.ID, "alice_esp02")

	for _, s := range []*FeedSchedule{
		{DeviceID: "alice_esp01", Time: "18:30", Amount: 75, Enabled: true},
		{DeviceID: "alice_esp01", Time: "08:00", Amount: 50, Enabled: true},
		{DeviceID: "alice_esp02", Time: "12:00", Amount: 25, Enabled: false},
	} {
		if err := repo.Create(context.Background(), s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	schedules, err := repo.ListByDevice(context.Background(), "alice_esp01")
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("ListByDevice() returned %d schedules, want 2", len(schedules))
	}
	// Ordered by feed time
	if schedules[0].Time != "08:00" || schedules[1].Time != "18:30" {
		t.Errorf("ListByDevice() order = [%s, %s], want [08:00, 18:30]",
			schedules[0].Time, schedules[1].Time)
	}
}

func TestScheduleRepository_ListByDevice_Empty(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)

	schedules, err := repo.ListByDevice(context.Background(), "missing_esp01")
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if schedules == nil {
		t.Error("ListByDevice() should return empty slice, not nil")
	}
}

func TestScheduleRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)
	owner := seedTestUser(t, db, "uid-alice", "alice@example.com")
	seedTestDevice(t, db, owner.ID, "alice_esp01")

	schedule := &FeedSchedule{DeviceID: "alice_esp01", Time: "08:00", Amount: 50, Enabled: true}
	if err := repo.Create(context.Background(), schedule); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(context.Background(), schedule.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := repo.GetByID(context.Background(), schedule.ID)
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrScheduleNotFound", err)
	}
}

func TestScheduleRepository_Delete_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewScheduleRepository(db)

	err := repo.Delete(context.Background(), 9999)
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("Delete() error = %v, want ErrScheduleNotFound", err)
	}
}
