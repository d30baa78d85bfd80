// Package bridge provides the realtime value tree shared between the
// backend, mobile clients, and feeder firmware.
//
// The tree is addressed by slash-separated paths:
//
//	users/{uid}/devices/{deviceId}/status
//	users/{uid}/devices/{deviceId}/led
//	users/{uid}/devices/{deviceId}/foodLevel
//	users/{uid}/devices/{deviceId}/lastFed
//
// Values are JSON-encoded scalars (string, bool, number, or null).
//
// Two providers are available:
//   - MQTT: values map to retained messages under a configurable topic
//     prefix, so late subscribers immediately receive current state
//   - Memory: in-process tree for tests and single-node development
//
// Subscribe delivers the current value immediately (when one exists) and
// then every subsequent update, mirroring the observer semantics clients
// expect from a realtime database.
package bridge
