package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/feederworks/petfeeder-core/internal/bridge"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// espEmailDomain is the domain feeders authenticate under.
const espEmailDomain = "petfeeder.com"

// minPasswordLength is the shortest device password accepted.
const minPasswordLength = 8

// DeviceRegistration is the onboarding payload returned to the mobile app,
// which forwards it to the feeder over the setup channel.
type DeviceRegistration struct {
	DeviceID    string `json:"deviceId"`
	ESPEmail    string `json:"espEmail"`
	APIKey      string `json:"apiKey"`
	DatabaseURL string `json:"databaseUrl"`
}

// Service coordinates user and device registration.
type Service struct {
	users   store.UserRepository
	devices store.DeviceRepository
	bridge  bridge.Bridge
	log     *logging.Logger

	jwtSecret     string
	tokenTTLHours int
	credentialKey []byte
	databaseURL   string
}

// NewService creates a registration service.
func NewService(users store.UserRepository, devices store.DeviceRepository, br bridge.Bridge, cfg *config.Config, log *logging.Logger) *Service {
	return &Service{
		users:         users,
		devices:       devices,
		bridge:        br,
		log:           log.With("component", "registration"),
		jwtSecret:     cfg.Security.JWT.Secret,
		tokenTTLHours: cfg.Security.JWT.DeviceTokenTTL,
		credentialKey: cfg.CredentialKeyBytes(),
		databaseURL:   cfg.Bridge.DatabaseURL,
	}
}

// RegisterUser creates a user account, or returns the existing account
// when the uid is already registered. Clients that authenticate upstream
// supply their own uid; an empty uid gets a fresh one minted here.
//
// Returns store.ErrUserExists when the email belongs to a different uid.
func (s *Service) RegisterUser(ctx context.Context, uid, email, name string) (*store.User, error) {
	uid = strings.TrimSpace(uid)
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if uid != "" {
		existing, err := s.users.GetByUID(ctx, uid)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
	}

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	if uid == "" {
		uid = uuid.NewString()
	}

	user := &store.User{
		UID:   uid,
		Email: email,
		Name:  name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "uid", user.UID, "email", user.Email)
	return user, nil
}

// GetUser retrieves a user account by uid.
func (s *Service) GetUser(ctx context.Context, uid string) (*store.User, error) {
	return s.users.GetByUID(ctx, uid)
}

// RegisterDevice onboards a new feeder for the given owner.
//
// The device id is derived from the owner's email local part and the
// owner's device count: alice@example.com's second feeder becomes
// alice_esp02. The supplied device password is sealed at rest and never
// returned; the response carries the issued API key instead.
func (s *Service) RegisterDevice(ctx context.Context, uid, name, password string) (*DeviceRegistration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: device name is required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: device password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	owner, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}

	count, err := s.devices.CountByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	deviceID := deriveDeviceID(owner.Email, count+1)
	espEmail := deviceID + "@" + espEmailDomain

	sealed, err := SealCredential(s.credentialKey, []byte(password))
	if err != nil {
		return nil, err
	}

	device := &store.Device{
		UserID:        owner.ID,
		DeviceID:      deviceID,
		Name:          name,
		ESPEmail:      espEmail,
		ESPCredential: sealed,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, err
	}

	if err := s.seedBridgeState(ctx, owner.UID, deviceID); err != nil {
		return nil, err
	}

	token, err := GenerateDeviceToken(deviceID, espEmail, s.jwtSecret, s.tokenTTLHours)
	if err != nil {
		return nil, err
	}

	s.log.Info("device registered", "uid", owner.UID, "device_id", deviceID)
	return &DeviceRegistration{
		DeviceID:    deviceID,
		ESPEmail:    espEmail,
		APIKey:      token,
		DatabaseURL: s.databaseURL,
	}, nil
}

// ListDevices returns all feeders owned by the given uid.
func (s *Service) ListDevices(ctx context.Context, uid string) ([]store.Device, error) {
	owner, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return s.devices.ListByOwner(ctx, owner.ID)
}

// DevicePassword opens the sealed credential for a feeder, identified by
// its login identity. Used by the wifi flow to hand credentials to the
// device during setup.
func (s *Service) DevicePassword(ctx context.Context, espEmail string) (string, error) {
	device, err := s.devices.GetByESPEmail(ctx, espEmail)
	if err != nil {
		return "", err
	}
	plaintext, err := OpenCredential(s.credentialKey, device.ESPCredential)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// seedBridgeState writes the initial realtime values for a new feeder so
// clients subscribing before first contact see a consistent baseline.
func (s *Service) seedBridgeState(ctx context.Context, uid, deviceID string) error {
	seeds := []struct {
		field string
		value any
	}{
		{bridge.FieldStatus, store.DeviceStatusOffline},
		{bridge.FieldLED, false},
		{bridge.FieldFoodLevel, float64(store.InitialFoodLevel)},
		{bridge.FieldLastFed, nil},
	}
	for _, seed := range seeds {
		path := bridge.DevicePath(uid, deviceID, seed.field)
		if err := s.bridge.SetValue(ctx, path, seed.value); err != nil {
			return fmt.Errorf("seeding bridge state for %s: %w", deviceID, err)
		}
	}
	return nil
}

// deriveDeviceID builds the device id from the owner's email local part
// and the feeder's sequence number.
func deriveDeviceID(email string, seq int) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	return fmt.Sprintf("%s_esp%02d", local, seq)
}

// validateEmail performs the minimal structural check the rest of the
// system depends on: a non-empty local part and domain.
func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if strings.Count(email, "@") != 1 {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}
