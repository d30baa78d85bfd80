package provisioning

import (
	"context"
	"time"
)

// State identifies where a setup session is in its lifecycle.
type State string

const (
	StateCreated        State = "created"
	StateWifiConfigured State = "wifi_configured"
	StateOnline         State = "online"
	StateReady          State = "ready"
	StateFailed         State = "failed"
)

// Step labels shown in the client's setup progress UI, in order.
var stepLabels = [4]string{
	"Device Created",
	"WiFi Connected",
	"Device Online",
	"Ready to Use",
}

// failedMessage is surfaced to clients when the online window expires.
const failedMessage = "Device not responding"

// Step is one entry in a session's progress checklist.
type Step struct {
	Label       string `json:"label"`
	Done        bool   `json:"done"`
	Failed      bool   `json:"failed,omitempty"`
	Description string `json:"description,omitempty"`
}

// Snapshot is a point-in-time view of a setup session.
type Snapshot struct {
	DeviceID  string    `json:"deviceId"`
	State     State     `json:"state"`
	Steps     []Step    `json:"steps"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// session is the manager's internal record of one device setup.
type session struct {
	uid       string
	deviceID  string
	state     State
	message   string
	updatedAt time.Time

	// cancelWatch stops the online watcher; nil until WiFi is configured.
	cancelWatch context.CancelFunc
}

// snapshot builds the client-facing view. Caller holds the manager lock.
func (s *session) snapshot() Snapshot {
	steps := make([]Step, len(stepLabels))
	for i, label := range stepLabels {
		steps[i] = Step{Label: label, Done: i < s.stepsDone()}
	}
	if s.state == StateFailed {
		// The online wait expired; the failure belongs to the online step.
		steps[2].Failed = true
		steps[2].Description = failedMessage
	}
	return Snapshot{
		DeviceID:  s.deviceID,
		State:     s.state,
		Steps:     steps,
		Message:   s.message,
		UpdatedAt: s.updatedAt,
	}
}

// stepsDone maps the state to how many checklist entries are complete.
func (s *session) stepsDone() int {
	switch s.state {
	case StateCreated:
		return 1
	case StateWifiConfigured:
		return 2
	case StateOnline:
		return 3
	case StateReady:
		return len(stepLabels)
	case StateFailed:
		// Failure happens while waiting for the device to come online.
		return 2
	default:
		return 0
	}
}
