package telemetry_test

import (
	"errors"
	"testing"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/telemetry"
)

func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "petfeeder-dev-token",
		Org:           "feederworks",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := telemetry.Connect(cfg)
	if !errors.Is(err, telemetry.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestNilClient(t *testing.T) {
	// A nil client stands in for disabled telemetry; all writes must be
	// silent no-ops.
	var client *telemetry.Client

	if client.IsConnected() {
		t.Error("IsConnected() = true for nil client")
	}

	client.WriteFeedEvent("alice_esp01", 50, telemetry.SourceManual)
	client.WriteFoodLevel("alice_esp01", 75)
	client.WriteStatusChange("alice_esp01", "online")
	client.Flush()

	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
