package wifi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/provisioning"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// EncryptedPayload carries a ChaCha20-Poly1305 ciphertext produced by the
// mobile app under the shared credential key. Both fields are base64.
type EncryptedPayload struct {
	Data string `json:"data"`
	IV   string `json:"iv"`
}

// ConnectRequest asks the backend to hand WiFi credentials to a feeder.
type ConnectRequest struct {
	ESPEmail         string           `json:"espEmail"`
	SSID             string           `json:"ssid"`
	EncryptedPayload EncryptedPayload `json:"encryptedPayload"`
}

// sessionMarker is the provisioning hook the connect flow drives.
// *provisioning.Manager satisfies it.
type sessionMarker interface {
	MarkWifiConfigured(deviceID string) (provisioning.Snapshot, error)
}

// Service coordinates the setup-time WiFi flow: scans, credential
// delivery, and scan-result eviction.
type Service struct {
	scanner  *Scanner
	networks store.WifiRepository
	devices  store.DeviceRepository
	sessions sessionMarker
	log      *logging.Logger

	credentialKey   []byte
	connectDelay    time.Duration
	scanTTL         time.Duration
	cleanupInterval time.Duration
}

// NewService creates a wifi service.
func NewService(networks store.WifiRepository, devices store.DeviceRepository, sessions sessionMarker, cfg *config.Config, log *logging.Logger) *Service {
	return &Service{
		scanner:         NewScanner(networks),
		networks:        networks,
		devices:         devices,
		sessions:        sessions,
		log:             log.With("component", "wifi"),
		credentialKey:   cfg.CredentialKeyBytes(),
		connectDelay:    time.Duration(cfg.Provisioning.ConnectDelay) * time.Second,
		scanTTL:         time.Duration(cfg.Wifi.ScanTTL) * time.Minute,
		cleanupInterval: time.Duration(cfg.Wifi.CleanupInterval) * time.Minute,
	}
}

// Scan produces a fresh set of visible networks for a setup scope.
func (s *Service) Scan(ctx context.Context, setupID string) ([]store.WifiNetwork, error) {
	return s.scanner.Scan(ctx, setupID)
}

// Connect decrypts the app-supplied WiFi password, verifies the target
// feeder exists, and advances its setup session. The password itself goes
// no further than decryption; delivery to the device happens over the
// feeder's own channel once it joins the network.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) error {
	if req.SSID == "" {
		return fmt.Errorf("%w: ssid is required", ErrValidation)
	}
	if req.ESPEmail == "" {
		return fmt.Errorf("%w: espEmail is required", ErrValidation)
	}
	if req.EncryptedPayload.Data == "" || req.EncryptedPayload.IV == "" {
		return fmt.Errorf("%w: encrypted payload is required", ErrValidation)
	}

	password, err := s.decryptPassword(req.EncryptedPayload)
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", ErrValidation)
	}

	device, err := s.devices.GetByESPEmail(ctx, req.ESPEmail)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			return ErrDeviceNotFound
		}
		return err
	}

	// Simulated device round-trip: joining the network takes a moment.
	if s.connectDelay > 0 {
		select {
		case <-time.After(s.connectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if _, err := s.sessions.MarkWifiConfigured(device.DeviceID); err != nil {
		if errors.Is(err, provisioning.ErrSessionNotFound) {
			// Connect outside a setup session is legal, e.g. after a
			// backend restart mid-setup. The device will simply report
			// online on its own.
			s.log.Warn("wifi configured without setup session", "device_id", device.DeviceID)
			return nil
		}
		return err
	}

	s.log.Info("wifi credentials delivered", "device_id", device.DeviceID, "ssid", req.SSID)
	return nil
}

// StartCleanup launches the scan-result eviction loop. It stops when the
// context is cancelled.
func (s *Service) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired(ctx)
			}
		}
	}()
}

// evictExpired removes scan results older than the TTL.
func (s *Service) evictExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.scanTTL)
	evicted, err := s.networks.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("evicting expired scans", "error", err)
		return
	}
	if evicted > 0 {
		s.log.Debug("evicted expired scans", "count", evicted)
	}
}

// decryptPassword opens an app-encrypted payload under the shared key.
func (s *Service) decryptPassword(p EncryptedPayload) (string, error) {
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return "", fmt.Errorf("%w: data is not base64", ErrInvalidCredentials)
	}
	iv, err := base64.StdEncoding.DecodeString(p.IV)
	if err != nil {
		return "", fmt.Errorf("%w: iv is not base64", ErrInvalidCredentials)
	}

	aead, err := chacha20poly1305.New(s.credentialKey)
	if err != nil {
		return "", fmt.Errorf("initialising wifi cipher: %w", err)
	}
	if len(iv) != aead.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length", ErrInvalidCredentials)
	}

	plaintext, err := aead.Open(nil, iv, data, nil)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	return string(plaintext), nil
}
