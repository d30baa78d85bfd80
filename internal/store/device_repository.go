package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DeviceRepository defines the interface for feeder device persistence.
type DeviceRepository interface {
	Create(ctx context.Context, device *Device) error
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)
	GetByESPEmail(ctx context.Context, espEmail string) (*Device, error)
	ListByOwner(ctx context.Context, userID int64) ([]Device, error)
	CountByOwner(ctx context.Context, userID int64) (int, error)
	UpdateStatus(ctx context.Context, deviceID, status string) error
	UpdateLED(ctx context.Context, deviceID string, on bool) error
	UpdateFoodLevel(ctx context.Context, deviceID string, level float64) error
	RecordFeedTime(ctx context.Context, deviceID string, fedAt time.Time) error
}

// deviceColumns is the column list shared by all device SELECTs.
const deviceColumns = "id, user_id, device_id, name, esp_email, esp_credential, status, food_level, led_status, last_fed, created_at"

// SQLiteDeviceRepository implements DeviceRepository using SQLite.
type SQLiteDeviceRepository struct {
	db *sql.DB
}

// NewDeviceRepository creates a new SQLite-backed device repository.
func NewDeviceRepository(db *sql.DB) *SQLiteDeviceRepository {
	return &SQLiteDeviceRepository{db: db}
}

// Create inserts a new device and fills in the generated row ID.
// New devices start offline with a full hopper and LED off unless the
// caller sets those fields explicitly.
func (r *SQLiteDeviceRepository) Create(ctx context.Context, device *Device) error {
	if device.Status == "" {
		device.Status = DeviceStatusOffline
	}
	if device.FoodLevel == 0 {
		device.FoodLevel = InitialFoodLevel
	}

	now := time.Now().UTC().Truncate(time.Second)
	device.CreatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (user_id, device_id, name, esp_email, esp_credential, status, food_level, led_status, last_fed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		device.UserID, device.DeviceID, device.Name, device.ESPEmail,
		device.ESPCredential, device.Status, device.FoodLevel,
		boolToInt(device.LEDStatus), nullTime(device.LastFed),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("creating device: %w", err)
	}

	device.ID, _ = result.LastInsertId() //nolint:errcheck // always succeeds on SQLite
	return nil
}

// GetByDeviceID retrieves a device by its derived device id.
func (r *SQLiteDeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*Device, error) {
	return r.getDevice(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE device_id = ?", deviceID)
}

// GetByESPEmail retrieves a device by its login identity.
func (r *SQLiteDeviceRepository) GetByESPEmail(ctx context.Context, espEmail string) (*Device, error) {
	return r.getDevice(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE esp_email = ?", espEmail)
}

// ListByOwner returns all devices belonging to a user, oldest first.
func (r *SQLiteDeviceRepository) ListByOwner(ctx context.Context, userID int64) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE user_id = ? ORDER BY created_at ASC, id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	if devices == nil {
		devices = []Device{}
	}
	return devices, nil
}

// CountByOwner returns the number of devices a user has registered.
// Used to derive the next device sequence number.
func (r *SQLiteDeviceRepository) CountByOwner(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM devices WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting devices: %w", err)
	}
	return count, nil
}

// UpdateStatus sets the device's connectivity status.
func (r *SQLiteDeviceRepository) UpdateStatus(ctx context.Context, deviceID, status string) error {
	return r.updateField(ctx, deviceID,
		"UPDATE devices SET status = ? WHERE device_id = ?", status)
}

// UpdateLED sets the device's LED state.
func (r *SQLiteDeviceRepository) UpdateLED(ctx context.Context, deviceID string, on bool) error {
	return r.updateField(ctx, deviceID,
		"UPDATE devices SET led_status = ? WHERE device_id = ?", boolToInt(on))
}

// UpdateFoodLevel sets the device's reported food level.
func (r *SQLiteDeviceRepository) UpdateFoodLevel(ctx context.Context, deviceID string, level float64) error {
	return r.updateField(ctx, deviceID,
		"UPDATE devices SET food_level = ? WHERE device_id = ?", level)
}

// RecordFeedTime stores the time of the most recent feed.
func (r *SQLiteDeviceRepository) RecordFeedTime(ctx context.Context, deviceID string, fedAt time.Time) error {
	return r.updateField(ctx, deviceID,
		"UPDATE devices SET last_fed = ? WHERE device_id = ?",
		fedAt.UTC().Format(time.RFC3339))
}

// updateField runs a single-column UPDATE keyed by device_id.
func (r *SQLiteDeviceRepository) updateField(ctx context.Context, deviceID, query string, value any) error {
	result, err := r.db.ExecContext(ctx, query, value, deviceID)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// getDevice executes a query and scans a single device result.
func (r *SQLiteDeviceRepository) getDevice(ctx context.Context, query string, args ...any) (*Device, error) {
	return scanDevice(r.db.QueryRowContext(ctx, query, args...))
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device from any scanner (Row or Rows).
func scanDevice(s scanner) (*Device, error) {
	var d Device
	var ledStatus int
	var lastFed sql.NullString
	var createdAt string

	err := s.Scan(&d.ID, &d.UserID, &d.DeviceID, &d.Name, &d.ESPEmail,
		&d.ESPCredential, &d.Status, &d.FoodLevel, &ledStatus,
		&lastFed, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d.LEDStatus = ledStatus != 0
	if lastFed.Valid {
		t, perr := time.Parse(time.RFC3339, lastFed.String)
		if perr == nil {
			d.LastFed = &t
		}
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &d, nil
}

// nullTime converts an optional time to a nullable RFC3339 string.
func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
