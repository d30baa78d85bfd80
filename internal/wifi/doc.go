// Package wifi implements the network scan and connect flow used during
// feeder setup.
//
// Feeder hardware has no direct scan API exposed to the backend, so scan
// results are synthesised from a fixed neighbourhood profile with jittered
// signal strengths, persisted per setup scope, and evicted after a TTL.
// The connect flow accepts the WiFi password encrypted by the mobile app
// under the shared credential key; the backend never sees or accepts the
// password in plaintext.
package wifi
