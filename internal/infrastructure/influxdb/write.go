package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCommandOutcome records the terminal state of a remote command.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - cmdType: The command type (e.g., "lock", "ping", "wipe")
//   - status: Terminal status ("success" or "failed")
//   - deviceID: The target device
//   - deliveryMillis: Time from creation to terminal status, in milliseconds
//
// Example:
//
//	client.WriteCommandOutcome("lock", "success", "dev-abc123", 42.0)
func (c *Client) WriteCommandOutcome(cmdType, status, deviceID string, deliveryMillis float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_outcomes",
		map[string]string{
			"type":   cmdType,
			"status": status,
		},
		map[string]interface{}{
			"device_id":       deviceID,
			"delivery_millis": deliveryMillis,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommandAck records a device-reported command acknowledgement.
//
// The point is stamped with the time the device reports it acted, not
// the time the ack arrived, so ack latency survives slow broker paths.
//
// Parameters:
//   - cmdType: The command type (e.g., "lock", "ping", "wipe")
//   - result: Device-reported outcome ("completed" or "failed")
//   - deviceID: The acknowledging device
//   - at: When the device reports it acted
func (c *Client) WriteCommandAck(cmdType, result, deviceID string, at time.Time) {
	c.WritePointWithTime(
		"command_acks",
		map[string]string{
			"type":   cmdType,
			"result": result,
		},
		map[string]interface{}{
			"device_id": deviceID,
		},
		at,
	)
}

// WriteQueueDepth records the number of commands waiting for an offline device.
//
// Sustained non-zero depth for a device is the main signal that push wake
// is not reaching it.
func (c *Client) WriteQueueDepth(deviceID string, depth int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_queues",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"depth": depth,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePresenceCount records how many registered devices are currently online.
func (c *Client) WritePresenceCount(online int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"presence",
		map[string]string{},
		map[string]interface{}{
			"online": online,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
