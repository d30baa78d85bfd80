package provisioning

import (
	"context"
	"sync"
	"time"

	"github.com/feederworks/petfeeder-core/internal/bridge"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/store"
)

// Manager owns all in-flight setup sessions.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Manager struct {
	bridge  bridge.Bridge
	devices store.DeviceRepository
	log     *logging.Logger

	interval time.Duration
	window   time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
	wg       sync.WaitGroup
}

// NewManager creates a provisioning manager.
func NewManager(br bridge.Bridge, devices store.DeviceRepository, cfg config.ProvisioningConfig, log *logging.Logger) *Manager {
	return &Manager{
		bridge:   br,
		devices:  devices,
		log:      log.With("component", "provisioning"),
		interval: cfg.Interval(),
		window:   cfg.Window(),
		sessions: make(map[string]*session),
	}
}

// Begin opens a setup session for a freshly registered device.
//
// Calling Begin for a device with an existing session returns the current
// snapshot unchanged, so retried registrations don't reset progress.
func (m *Manager) Begin(uid, deviceID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, ErrClosed
	}
	if existing, ok := m.sessions[deviceID]; ok {
		return existing.snapshot(), nil
	}

	s := &session{
		uid:       uid,
		deviceID:  deviceID,
		state:     StateCreated,
		updatedAt: time.Now().UTC(),
	}
	m.sessions[deviceID] = s

	m.log.Info("setup session opened", "uid", uid, "device_id", deviceID)
	return s.snapshot(), nil
}

// MarkWifiConfigured records that WiFi credentials reached the device and
// starts watching for it to come online.
//
// Idempotent while a watch is live or complete: wifi_configured, online,
// and ready sessions are returned as-is. A failed session is re-entered,
// opening a fresh observation window on the same device identity.
func (m *Manager) MarkWifiConfigured(deviceID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, ErrClosed
	}
	s, ok := m.sessions[deviceID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	switch s.state {
	case StateCreated:
	case StateFailed:
		// Retrying the WiFi step is the only recovery path from failed.
		// The previous watcher has resolved; cancelling covers a racing one.
		if s.cancelWatch != nil {
			s.cancelWatch()
		}
	default:
		return s.snapshot(), nil
	}

	s.state = StateWifiConfigured
	s.message = ""
	s.updatedAt = time.Now().UTC()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelWatch = cancel
	m.wg.Add(1)
	go m.watch(ctx, s.uid, s.deviceID)

	m.log.Info("wifi configured, watching for device", "device_id", deviceID)
	return s.snapshot(), nil
}

// Snapshot returns the current view of a device's setup session.
func (m *Manager) Snapshot(deviceID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[deviceID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Cancel aborts a setup session and discards its state.
func (m *Manager) Cancel(deviceID string) error {
	m.mu.Lock()
	s, ok := m.sessions[deviceID]
	if ok {
		delete(m.sessions, deviceID)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if s.cancelWatch != nil {
		s.cancelWatch()
	}

	m.log.Info("setup session cancelled", "device_id", deviceID)
	return nil
}

// Close stops all watchers and rejects further sessions.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	for _, s := range m.sessions {
		if s.cancelWatch != nil {
			s.cancelWatch()
		}
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// watch waits for the device to report online, via a bridge subscription
// with a polling safety net, and resolves the session either way.
func (m *Manager) watch(ctx context.Context, uid, deviceID string) {
	defer m.wg.Done()

	statusPath := bridge.DevicePath(uid, deviceID, bridge.FieldStatus)

	online := make(chan struct{}, 1)
	cancelSub, err := m.bridge.Subscribe(statusPath, func(value any) {
		if value == store.DeviceStatusOnline {
			select {
			case online <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		m.log.Error("status subscription failed", "device_id", deviceID, "error", err)
		m.resolve(deviceID, StateFailed, failedMessage)
		return
	}
	defer cancelSub()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(m.window)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-online:
			m.deviceOnline(ctx, deviceID)
			return

		case <-deadline.C:
			m.log.Warn("device never reported online", "device_id", deviceID, "window", m.window)
			m.resolve(deviceID, StateFailed, failedMessage)
			return

		case <-ticker.C:
			// Safety net: poll in case the status update was missed.
			value, err := m.bridge.GetValue(ctx, statusPath)
			if err == nil && value == store.DeviceStatusOnline {
				m.deviceOnline(ctx, deviceID)
				return
			}
		}
	}
}

// deviceOnline mirrors the status into the store and completes the session.
func (m *Manager) deviceOnline(ctx context.Context, deviceID string) {
	if err := m.devices.UpdateStatus(ctx, deviceID, store.DeviceStatusOnline); err != nil {
		m.log.Error("recording online status", "device_id", deviceID, "error", err)
	}

	m.resolve(deviceID, StateOnline, "")
	m.resolve(deviceID, StateReady, "")
	m.log.Info("device online, setup complete", "device_id", deviceID)
}

// resolve updates a session's terminal state if it still exists.
func (m *Manager) resolve(deviceID string, state State, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[deviceID]
	if !ok {
		return
	}
	s.state = state
	s.message = message
	s.updatedAt = time.Now().UTC()
}
