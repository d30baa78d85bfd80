package wifi

import (
	"context"
	"math/rand"

	"github.com/feederworks/petfeeder-core/internal/store"
)

// Security modes reported in scan results.
const (
	SecurityWPA2 = "WPA2"
	SecurityOpen = "Open"
)

// rssiJitter is the +/- range applied to baseline signal strengths so
// repeated scans look like live measurements.
const rssiJitter = 3

// neighbourhood is the fixed profile scans are synthesised from,
// strongest signal first.
var neighbourhood = []store.WifiNetwork{
	{SSID: "HomeNetwork_5G", RSSI: -45, Security: SecurityWPA2},
	{SSID: "NeighborWiFi", RSSI: -65, Security: SecurityWPA2},
	{SSID: "GuestNetwork", RSSI: -75, Security: SecurityOpen},
	{SSID: "CoffeeShop_WiFi", RSSI: -80, Security: SecurityWPA2},
}

// Scanner produces and persists scan results per setup scope.
type Scanner struct {
	networks store.WifiRepository
}

// NewScanner creates a scanner backed by the given repository.
func NewScanner(networks store.WifiRepository) *Scanner {
	return &Scanner{networks: networks}
}

// Scan synthesises a fresh set of visible networks for a setup scope,
// replacing any previous results, and returns them strongest first.
func (s *Scanner) Scan(ctx context.Context, setupID string) ([]store.WifiNetwork, error) {
	if setupID == "" {
		return nil, ErrValidation
	}

	results := make([]store.WifiNetwork, len(neighbourhood))
	for i, n := range neighbourhood {
		n.RSSI += rand.Intn(2*rssiJitter+1) - rssiJitter //nolint:gosec // display jitter, not security-relevant
		results[i] = n
	}

	return s.networks.SaveScan(ctx, setupID, results)
}

// Results returns the stored scan for a setup scope, strongest first.
// The slice is empty when no scan has run or the results were evicted.
func (s *Scanner) Results(ctx context.Context, setupID string) ([]store.WifiNetwork, error) {
	if setupID == "" {
		return nil, ErrValidation
	}
	return s.networks.ListBySetup(ctx, setupID)
}
