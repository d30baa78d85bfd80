package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the petfeeder schema
// applied. The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "store-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			device_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			esp_email TEXT NOT NULL UNIQUE,
			esp_credential BLOB NOT NULL,
			status TEXT NOT NULL DEFAULT 'offline',
			food_level REAL NOT NULL DEFAULT 100,
			led_status INTEGER NOT NULL DEFAULT 0,
			last_fed TEXT,
			created_at TEXT NOT NULL
		);

		CREATE TABLE feed_schedules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL REFERENCES devices(device_id),
			time TEXT NOT NULL,
			amount REAL NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);

		CREATE TABLE wifi_networks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_setup_id TEXT NOT NULL,
			ssid TEXT NOT NULL,
			rssi INTEGER NOT NULL,
			security TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

// seedTestUser inserts a user account and returns it.
func seedTestUser(t *testing.T, db *sql.DB, uid, email string) *User {
	t.Helper()

	repo := NewUserRepository(db)
	user := &User{
		UID:   uid,
		Email: email,
		Name:  "Test User",
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", uid, err)
	}
	return user
}

// seedTestDevice inserts a device for the given owner and returns it.
func seedTestDevice(t *testing.T, db *sql.DB, userID int64, deviceID string) *Device {
	t.Helper()

	repo := NewDeviceRepository(db)
	device := &Device{
		UserID:        userID,
		DeviceID:      deviceID,
		Name:          "Kitchen Feeder",
		ESPEmail:      deviceID + "@petfeeder.com",
		ESPCredential: []byte("sealed-credential"),
	}
	if err := repo.Create(context.Background(), device); err != nil {
		t.Fatalf("creating test device %s: %v", deviceID, err)
	}
	return device
}
