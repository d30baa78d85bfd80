//go:build integration

package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/feederworks/petfeeder-core/internal/infrastructure/telemetry"
)

// These tests need a local InfluxDB at 127.0.0.1:8086 (see docker-compose.yml).

func TestConnect(t *testing.T) {
	client, err := telemetry.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	if _, err := telemetry.Connect(cfg); err == nil {
		t.Fatal("Connect() should fail for unreachable server")
	}
}

func TestWrites(t *testing.T) {
	client, err := telemetry.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var mu sync.Mutex
	var writeErr error
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	client.WriteFeedEvent("test-feeder", 50, telemetry.SourceManual)
	client.WriteFoodLevel("test-feeder", 72.5)
	client.WriteStatusChange("test-feeder", "online")
	client.Flush()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("write error = %v", writeErr)
	}
}
