// Package mqtt provides MQTT connectivity for PetFeeder Core.
//
// This package wraps eclipse/paho.mqtt.golang to provide:
//   - Connection management with automatic reconnection
//   - Publishing with QoS and retained-message support
//   - Subscription handling with re-subscription on reconnect
//   - Panic recovery in message handlers
//   - Topic builders for the petfeeder topic hierarchy
//
// # Topic Hierarchy
//
// Device values mirror the realtime tree exposed to clients and feeders:
//
//	petfeeder/users/{uid}/devices/{deviceId}/status
//	petfeeder/users/{uid}/devices/{deviceId}/led
//	petfeeder/system/status
//
// Value topics are published retained so late subscribers immediately
// receive the current state.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceStatus("user-1", "alice_esp01")
//	err = client.PublishRetained(topic, []byte(`"online"`))
package mqtt
