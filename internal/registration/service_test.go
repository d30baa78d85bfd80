package registration

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/feederworks/petfeeder-core/internal/bridge"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// testDB creates a temporary SQLite database with the tables registration
// touches. The file is removed when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "registration-test-*.db")
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
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Security.JWT.Secret = "test-jwt-secret-at-least-32-chars-long"
	cfg.Security.JWT.DeviceTokenTTL = 24
	cfg.Security.CredentialKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	cfg.Bridge.DatabaseURL = "mqtts://broker.test:8883"
	return cfg
}

// newTestService wires a Service against a temp database and an in-memory
// bridge, returning both for assertions.
func newTestService(t *testing.T) (*Service, *bridge.Memory) {
	t.Helper()

	db := testDB(t)
	br := bridge.NewMemory()
	t.Cleanup(func() { br.Close() })

	svc := NewService(
		store.NewUserRepository(db),
		store.NewDeviceRepository(db),
		br,
		testConfig(),
		logging.Default(),
	)
	return svc, br
}

func TestRegisterUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "Alice@Example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if user.UID == "" {
		t.Error("RegisterUser() returned empty uid")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %s, want alice@example.com (normalised)", user.Email)
	}
	if user.ID == 0 {
		t.Error("RegisterUser() did not persist the user")
	}

	got, err := svc.GetUser(ctx, user.UID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("GetUser().Email = %s, want %s", got.Email, user.Email)
	}
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice"); err != nil {
		t.Fatalf("first RegisterUser() error = %v", err)
	}
	if _, err := svc.RegisterUser(ctx, "", "alice@example.com", "Other Alice"); !errors.Is(err, store.ErrUserExists) {
		t.Errorf("duplicate RegisterUser() error = %v, want ErrUserExists", err)
	}
}

func TestRegisterUser_UpsertByUID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RegisterUser(ctx, "client-uid-1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if first.UID != "client-uid-1" {
		t.Errorf("UID = %s, want the supplied uid", first.UID)
	}

	// Registering the same uid again returns the existing account untouched.
	again, err := svc.RegisterUser(ctx, "client-uid-1", "different@example.com", "Someone Else")
	if err != nil {
		t.Fatalf("repeat RegisterUser() error = %v", err)
	}
	if again.ID != first.ID || again.Email != first.Email || again.Name != first.Name {
		t.Errorf("repeat RegisterUser() = %+v, want existing account %+v", again, first)
	}
}

func TestRegisterUser_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		user  string
	}{
		{"empty email", "", "Alice"},
		{"missing at sign", "aliceexample.com", "Alice"},
		{"missing local part", "@example.com", "Alice"},
		{"missing domain", "alice@", "Alice"},
		{"double at sign", "alice@@example.com", "Alice"},
		{"empty name", "alice@example.com", ""},
		{"whitespace name", "alice@example.com", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RegisterUser(ctx, "", tt.email, tt.user); !errors.Is(err, ErrValidation) {
				t.Errorf("RegisterUser(%q, %q) error = %v, want ErrValidation", tt.email, tt.user, err)
			}
		})
	}
}

func TestRegisterDevice(t *testing.T) {
	svc, br := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	reg, err := svc.RegisterDevice(ctx, user.UID, "Kitchen Feeder", "secret123")
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	if reg.DeviceID != "alice_esp01" {
		t.Errorf("DeviceID = %s, want alice_esp01", reg.DeviceID)
	}
	if reg.ESPEmail != "alice_esp01@petfeeder.com" {
		t.Errorf("ESPEmail = %s, want alice_esp01@petfeeder.com", reg.ESPEmail)
	}
	if reg.DatabaseURL != "mqtts://broker.test:8883" {
		t.Errorf("DatabaseURL = %s, want configured bridge URL", reg.DatabaseURL)
	}

	// The API key must be a device token for this feeder.
	claims, err := ParseDeviceToken(reg.APIKey, "test-jwt-secret-at-least-32-chars-long")
	if err != nil {
		t.Fatalf("ParseDeviceToken(APIKey) error = %v", err)
	}
	if claims.DeviceID != "alice_esp01" {
		t.Errorf("token DeviceID = %s, want alice_esp01", claims.DeviceID)
	}

	// Bridge seeded with initial state.
	checks := []struct {
		field string
		want  any
	}{
		{bridge.FieldStatus, "offline"},
		{bridge.FieldLED, false},
		{bridge.FieldFoodLevel, 100.0},
		{bridge.FieldLastFed, nil},
	}
	for _, c := range checks {
		value, err := br.GetValue(ctx, bridge.DevicePath(user.UID, "alice_esp01", c.field))
		if err != nil {
			t.Fatalf("GetValue(%s) error = %v", c.field, err)
		}
		if value != c.want {
			t.Errorf("bridge %s = %v, want %v", c.field, value, c.want)
		}
	}
}

func TestRegisterDevice_SequenceIncrements(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	first, err := svc.RegisterDevice(ctx, user.UID, "Kitchen Feeder", "secret123")
	if err != nil {
		t.Fatalf("first RegisterDevice() error = %v", err)
	}
	second, err := svc.RegisterDevice(ctx, user.UID, "Garage Feeder", "secret456")
	if err != nil {
		t.Fatalf("second RegisterDevice() error = %v", err)
	}

	if first.DeviceID != "alice_esp01" || second.DeviceID != "alice_esp02" {
		t.Errorf("device ids = %s, %s, want alice_esp01, alice_esp02", first.DeviceID, second.DeviceID)
	}
}

func TestRegisterDevice_UnknownOwner(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.RegisterDevice(context.Background(), "no-such-uid", "Feeder", "secret123"); !errors.Is(err, ErrOwnerNotFound) {
		t.Errorf("RegisterDevice() error = %v, want ErrOwnerNotFound", err)
	}
}

func TestRegisterDevice_EmptyName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	if _, err := svc.RegisterDevice(ctx, user.UID, "  ", "secret123"); !errors.Is(err, ErrValidation) {
		t.Errorf("RegisterDevice() error = %v, want ErrValidation", err)
	}
}

func TestRegisterDevice_ShortPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	if _, err := svc.RegisterDevice(ctx, user.UID, "Kitchen Feeder", "short"); !errors.Is(err, ErrValidation) {
		t.Errorf("RegisterDevice() with short password error = %v, want ErrValidation", err)
	}
}

func TestListDevices(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	devices, err := svc.ListDevices(ctx, user.UID)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("ListDevices() before registration = %d devices, want 0", len(devices))
	}

	if _, err := svc.RegisterDevice(ctx, user.UID, "Kitchen Feeder", "secret123"); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	devices, err = svc.ListDevices(ctx, user.UID)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("ListDevices() = %d devices, want 1", len(devices))
	}
	if devices[0].Status != store.DeviceStatusOffline {
		t.Errorf("new device status = %s, want offline", devices[0].Status)
	}
	if devices[0].FoodLevel != 100 {
		t.Errorf("new device food level = %v, want 100", devices[0].FoodLevel)
	}
}

func TestListDevices_UnknownOwner(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.ListDevices(context.Background(), "no-such-uid"); !errors.Is(err, ErrOwnerNotFound) {
		t.Errorf("ListDevices() error = %v, want ErrOwnerNotFound", err)
	}
}

func TestDevicePassword_Roundtrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	reg, err := svc.RegisterDevice(ctx, user.UID, "Kitchen Feeder", "secret123")
	if err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	password, err := svc.DevicePassword(ctx, reg.ESPEmail)
	if err != nil {
		t.Fatalf("DevicePassword() error = %v", err)
	}
	if password != "secret123" {
		t.Errorf("DevicePassword() = %q, want the submitted password", password)
	}
}

func TestDevicePassword_UnknownDevice(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.DevicePassword(context.Background(), "ghost@petfeeder.com"); !errors.Is(err, store.ErrDeviceNotFound) {
		t.Errorf("DevicePassword() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestDeriveDeviceID(t *testing.T) {
	tests := []struct {
		email string
		seq   int
		want  string
	}{
		{"alice@example.com", 1, "alice_esp01"},
		{"alice@example.com", 2, "alice_esp02"},
		{"bob.smith@mail.org", 10, "bob.smith_esp10"},
		{"carol@x.io", 100, "carol_esp100"},
	}
	for _, tt := range tests {
		if got := deriveDeviceID(tt.email, tt.seq); got != tt.want {
			t.Errorf("deriveDeviceID(%q, %d) = %q, want %q", tt.email, tt.seq, got, tt.want)
		}
	}
}
