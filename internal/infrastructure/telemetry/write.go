package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Feed event sources.
const (
	SourceManual   = "manual"
	SourceSchedule = "schedule"
)

// WriteFeedEvent records a dispense.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Feeder identifier (e.g., "alice_esp01")
//   - amount: Dispensed amount in grams
//   - source: What triggered the feed (SourceManual or SourceSchedule)
func (c *Client) WriteFeedEvent(deviceID string, amount float64, source string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"feed_events",
		map[string]string{
			"device_id": deviceID,
			"source":    source,
		},
		map[string]interface{}{
			"amount": amount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFoodLevel records a hopper level reading reported by a feeder.
//
// Parameters:
//   - deviceID: Feeder identifier
//   - level: Remaining food as a percentage (0-100)
func (c *Client) WriteFoodLevel(deviceID string, level float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"food_levels",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"level": level,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStatusChange records a connectivity transition.
//
// Parameters:
//   - deviceID: Feeder identifier
//   - status: New status ("online" or "offline")
func (c *Client) WriteStatusChange(deviceID, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"status": status,
			"online": boolField(status == "online"),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// boolField converts a bool to the 0/1 field InfluxDB dashboards graph.
func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}
