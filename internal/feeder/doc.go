// Package feeder implements the runtime operations on registered feeders:
// LED control, manual feeds, status and food level reporting, and feed
// schedule management.
//
// Every operation resolves the target device first and fails with
// store.ErrDeviceNotFound for unknown device ids, so callers can map
// missing devices to a 404 instead of silently succeeding. State changes
// are written to the store and mirrored to the realtime bridge, with
// telemetry recorded when an InfluxDB client is wired in.
package feeder
