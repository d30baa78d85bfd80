// Package telemetry records feeding history and hopper levels in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with the patterns
// the rest of the backend expects: connection management, non-blocking
// batched writes, and health monitoring.
//
// # Purpose
//
// Time-series storage for:
//   - Feed events (scheduled and manual dispenses)
//   - Food level readings reported by feeders
//   - Device connectivity transitions
//
// # Usage
//
//	client, err := telemetry.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteFeedEvent("alice_esp01", 50, "manual")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback. Connection and health check errors are returned directly.
package telemetry
