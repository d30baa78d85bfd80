// Package provisioning tracks the setup lifecycle of a feeder from
// registration to first contact.
//
// Each device being set up has a session that advances through:
//
//	created -> wifi_configured -> online -> ready
//
// or ends in failed when the feeder never reports online within the
// configured window. Once WiFi credentials are delivered, the manager
// watches the device's realtime status through a bridge subscription,
// backed by a polling safety net in case a broker hiccup swallows the
// status update. Clients poll the session snapshot to drive their setup
// progress UI.
package provisioning
