package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ScheduleRepository defines the interface for feed schedule persistence.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *FeedSchedule) error
	GetByID(ctx context.Context, id int64) (*FeedSchedule, error)
	ListByDevice(ctx context.Context, deviceID string) ([]FeedSchedule, error)
	Delete(ctx context.Context, id int64) error
}

// SQLiteScheduleRepository implements ScheduleRepository using SQLite.
type SQLiteScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new SQLite-backed schedule repository.
func NewScheduleRepository(db *sql.DB) *SQLiteScheduleRepository {
	return &SQLiteScheduleRepository{db: db}
}

// Create inserts a new feed schedule and fills in the generated ID.
func (r *SQLiteScheduleRepository) Create(ctx context.Context, schedule *FeedSchedule) error {
	now := time.Now().UTC().Truncate(time.Second)
	schedule.CreatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_schedules (device_id, time, amount, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		schedule.DeviceID, schedule.Time, schedule.Amount,
		boolToInt(schedule.Enabled), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating schedule: %w", err)
	}

	schedule.ID, _ = result.LastInsertId() //nolint:errcheck // always succeeds on SQLite
	return nil
}

// GetByID retrieves a schedule by its row ID.
func (r *SQLiteScheduleRepository) GetByID(ctx context.Context, id int64) (*FeedSchedule, error) {
	var s FeedSchedule
	var enabled int
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, device_id, time, amount, enabled, created_at FROM feed_schedules WHERE id = ?", id,
	).Scan(&s.ID, &s.DeviceID, &s.Time, &s.Amount, &enabled, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scanning schedule: %w", err)
	}

	s.Enabled = enabled != 0
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &s, nil
}

// ListByDevice returns all schedules for a device ordered by feed time.
func (r *SQLiteScheduleRepository) ListByDevice(ctx context.Context, deviceID string) ([]FeedSchedule, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, device_id, time, amount, enabled, created_at FROM feed_schedules WHERE device_id = ? ORDER BY time ASC, id ASC",
		deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var schedules []FeedSchedule
	for rows.Next() {
		var s FeedSchedule
		var enabled int
		var createdAt string
		if err := rows.Scan(&s.ID, &s.DeviceID, &s.Time, &s.Amount, &enabled, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		s.Enabled = enabled != 0
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedules: %w", err)
	}

	if schedules == nil {
		schedules = []FeedSchedule{}
	}
	return schedules, nil
}

// Delete removes a schedule by ID.
func (r *SQLiteScheduleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM feed_schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
