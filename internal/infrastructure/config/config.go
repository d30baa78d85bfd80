package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for PetFeeder Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	Bridge       BridgeConfig       `yaml:"bridge"`
	API          APIConfig          `yaml:"api"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Logging      LoggingConfig      `yaml:"logging"`
	Security     SecurityConfig     `yaml:"security"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Wifi         WifiConfig         `yaml:"wifi"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// BridgeConfig contains realtime status bridge settings.
type BridgeConfig struct {
	// Provider selects the bridge implementation: "mqtt" or "memory".
	// The memory provider is intended for tests and broker-less development.
	Provider string `yaml:"provider"`

	// TopicPrefix is prepended to bridge paths when mapping to MQTT topics.
	TopicPrefix string `yaml:"topic_prefix"`

	// GetTimeout is how long GetValue waits for a retained value (seconds).
	GetTimeout int `yaml:"get_timeout"`

	// DatabaseURL is the bridge connection URL handed to device firmware
	// during registration (e.g. "mqtts://broker.petfeeder.com:8883").
	DatabaseURL string `yaml:"database_url"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings for feeding telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`

	// CredentialKey is the base64-encoded 32-byte key used to seal device
	// credentials at rest. Always set PETFEEDER_CREDENTIAL_KEY in production.
	CredentialKey string `yaml:"credential_key"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`

	// DeviceTokenTTL is the lifetime of device access tokens in hours.
	// Device tokens are long-lived: firmware has no refresh flow.
	DeviceTokenTTL int `yaml:"device_token_ttl"`
}

// ProvisioningConfig contains provisioning state machine settings.
type ProvisioningConfig struct {
	// PollInterval is the status poll tick in seconds.
	PollInterval int `yaml:"poll_interval"`

	// Timeout is the total online wait window in seconds.
	Timeout int `yaml:"timeout"`

	// ConnectDelay simulates the device round-trip on WiFi connect, in seconds.
	ConnectDelay int `yaml:"connect_delay"`
}

// WifiConfig contains WiFi scan-result retention settings.
type WifiConfig struct {
	// ScanTTL is how long scan results are retained per setup scope, in minutes.
	ScanTTL int `yaml:"scan_ttl"`

	// CleanupInterval is how often expired scan scopes are evicted, in minutes.
	CleanupInterval int `yaml:"cleanup_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PETFEEDER_SECTION_KEY
// (e.g. PETFEEDER_DATABASE_PATH, PETFEEDER_JWT_SECRET).
//
// Parameters:
//   - path: Filesystem path to the YAML configuration file
//
// Returns:
//   - *Config: Validated configuration
//   - error: If the file cannot be read, parsed, or fails validation
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/petfeeder.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "petfeeder-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Bridge: BridgeConfig{
			Provider:    "mqtt",
			TopicPrefix: "petfeeder",
			GetTimeout:  2,
			DatabaseURL: "mqtt://localhost:1883",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				DeviceTokenTTL: 24 * 365, // one year; firmware has no refresh flow
			},
		},
		Provisioning: ProvisioningConfig{
			PollInterval: 3,
			Timeout:      60,
			ConnectDelay: 2,
		},
		Wifi: WifiConfig{
			ScanTTL:         15,
			CleanupInterval: 5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PETFEEDER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("PETFEEDER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("PETFEEDER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PETFEEDER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PETFEEDER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("PETFEEDER_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("PETFEEDER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - always override both of these in production
	if v := os.Getenv("PETFEEDER_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("PETFEEDER_CREDENTIAL_KEY"); v != "" {
		cfg.Security.CredentialKey = v
	}
}

// credentialKeyLength is the required decoded length of the credential key.
const credentialKeyLength = 32

// minJWTSecretLength is the minimum JWT secret length.
// Short secrets make forged device tokens feasible.
const minJWTSecretLength = 32

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Bridge validation
	switch c.Bridge.Provider {
	case "mqtt", "memory":
	default:
		errs = append(errs, "bridge.provider must be \"mqtt\" or \"memory\"")
	}
	if c.Bridge.TopicPrefix == "" {
		errs = append(errs, "bridge.topic_prefix is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - JWT secret is REQUIRED.
	// Device tokens authenticate firmware to the realtime bridge; a weak
	// secret would let anyone impersonate a feeder.
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set PETFEEDER_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	// Credential key must decode to exactly 32 bytes.
	if c.Security.CredentialKey == "" {
		errs = append(errs, "security.credential_key is required (set PETFEEDER_CREDENTIAL_KEY environment variable)")
	} else if key, err := base64.StdEncoding.DecodeString(c.Security.CredentialKey); err != nil {
		errs = append(errs, "security.credential_key must be base64 encoded")
	} else if len(key) != credentialKeyLength {
		errs = append(errs, "security.credential_key must decode to 32 bytes")
	}

	// Provisioning validation
	if c.Provisioning.PollInterval < 1 {
		errs = append(errs, "provisioning.poll_interval must be at least 1 second")
	}
	if c.Provisioning.Timeout <= c.Provisioning.PollInterval {
		errs = append(errs, "provisioning.timeout must exceed provisioning.poll_interval")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CredentialKeyBytes returns the decoded credential sealing key.
// Validate() must have succeeded before calling this.
func (c *Config) CredentialKeyBytes() []byte {
	key, _ := base64.StdEncoding.DecodeString(c.Security.CredentialKey) //nolint:errcheck // validated in Validate()
	return key
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// Interval returns the provisioning poll interval as a Duration.
func (c *ProvisioningConfig) Interval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// Window returns the provisioning wait window as a Duration.
func (c *ProvisioningConfig) Window() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
