// Package store provides persistence for PetFeeder Core entities.
//
// This package manages:
//   - User accounts keyed by external auth provider uid
//   - Feeder devices with sealed credentials and live state
//   - Feed schedules per device
//   - WiFi scan results scoped to setup sessions
//
// Each entity has a repository interface and a SQLite implementation.
// All timestamps are stored as RFC3339 TEXT in UTC.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Device credentials are stored sealed (AEAD) and never serialised
package store
