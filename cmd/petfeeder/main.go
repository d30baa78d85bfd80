// PetFeeder Core - IoT Pet Feeder Backend
//
// This is the main entry point for the PetFeeder Core application.
// It serves the mobile app and feeder firmware with:
//   - User and device registration
//   - Feed scheduling and manual controls
//   - Setup-time WiFi provisioning
//   - A realtime status bridge over MQTT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/feederworks/petfeeder-core/migrations"

	"github.com/feederworks/petfeeder-core/internal/api"
	"github.com/feederworks/petfeeder-core/internal/bridge"
	"github.com/feederworks/petfeeder-core/internal/feeder"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/config"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/database"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/logging"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/mqtt"
	"github.com/feederworks/petfeeder-core/internal/infrastructure/telemetry"
	"github.com/feederworks/petfeeder-core/internal/provisioning"
	"github.com/feederworks/petfeeder-core/internal/registration"
	"github.com/feederworks/petfeeder-core/internal/store"
	"github.com/feederworks/petfeeder-core/internal/wifi"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PetFeeder Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	users := store.NewUserRepository(db.DB)
	devices := store.NewDeviceRepository(db.DB)
	schedules := store.NewScheduleRepository(db.DB)
	networks := store.NewWifiRepository(db.DB)

	// Realtime status bridge
	br, mqttClient, err := connectBridge(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing status bridge")
		if closeErr := br.Close(); closeErr != nil {
			log.Error("error closing bridge", "error", closeErr)
		}
		if mqttClient != nil {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}
	}()

	// Connect to InfluxDB (optional)
	var telemetryClient *telemetry.Client
	if cfg.InfluxDB.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		telemetryClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Provisioning state machine
	manager := provisioning.NewManager(br, devices, cfg.Provisioning, log)
	defer func() {
		log.Info("closing provisioning manager")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing provisioning manager", "error", closeErr)
		}
	}()

	// WiFi setup flow with scan-result eviction
	wifiService := wifi.NewService(networks, devices, manager, cfg, log)
	wifiService.StartCleanup(ctx)

	// API server
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Logger:       log,
		Registration: registration.NewService(users, devices, br, cfg, log),
		Controls:     feeder.NewControls(users, devices, br, telemetryClient, log),
		Schedules:    feeder.NewSchedules(schedules, devices, log),
		Wifi:         wifiService,
		Provisioning: manager,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, telemetryClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Provisioning manager
	// 3. InfluxDB (if enabled)
	// 4. Bridge and MQTT
	// 5. Database

	log.Info("PetFeeder Core stopped")
	return nil
}

// connectBridge creates the status bridge for the configured provider.
// The returned MQTT client is nil for the memory provider.
func connectBridge(cfg *config.Config, log *logging.Logger) (bridge.Bridge, *mqtt.Client, error) {
	if cfg.Bridge.Provider == "memory" {
		log.Info("status bridge using memory provider")
		return bridge.NewMemory(), nil, nil
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	return bridge.NewMQTT(mqttClient, cfg.Bridge, byte(cfg.MQTT.QoS)), mqttClient, nil
}

// getConfigPath returns the configuration file path.
// Uses PETFEEDER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PETFEEDER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil for the memory bridge)
//   - telemetryClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, telemetryClient *telemetry.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if telemetryClient != nil {
		if err := telemetryClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
