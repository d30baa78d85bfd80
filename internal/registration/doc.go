// Package registration handles user sign-up and feeder device onboarding.
//
// Device registration derives a stable device id from the owner's email
// local part and the owner's device count, mints the feeder's own login
// identity ({deviceId}@petfeeder.com plus a random password sealed at
// rest), seeds the realtime bridge with the device's initial state, and
// issues a long-lived device token the firmware uses to authenticate.
//
// The sealed credential uses ChaCha20-Poly1305 with the key from
// security.credential_key; SealCredential and OpenCredential are shared
// with the wifi provisioning flow, which uses the same key to decrypt
// passwords sent by the mobile app.
package registration
