package mqtt

import "fmt"

// Topic prefixes for the TrustEdge MQTT namespace.
//
// Device topics use the flat scheme: trustedge/{category}/{device_id}
// This matches the agent firmware's subscriber layout.
const (
	// TopicPrefixDevice is the base for all per-device topics.
	// Flat scheme: trustedge/{category}/{device_id}
	TopicPrefixDevice = "trustedge"

	// TopicPrefixCore is the base for all core topics.
	TopicPrefixCore = "trustedge/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "trustedge/system"
)

// Topics provides builders for TrustEdge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommand("dev-abc123")
//	// Returns: "trustedge/command/dev-abc123"
type Topics struct{}

// =============================================================================
// Device Topics
// =============================================================================

// DeviceCommand returns the topic for remote commands delivered to a device.
//
// Example: trustedge/command/dev-abc123
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefixDevice, deviceID)
}

// DeviceAck returns the topic for command acknowledgements from a device.
//
// Example: trustedge/ack/dev-abc123
func (Topics) DeviceAck(deviceID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefixDevice, deviceID)
}

// DeviceWake returns the topic for push-wake nudges to an offline device.
//
// Example: trustedge/wake/dev-abc123
func (Topics) DeviceWake(deviceID string) string {
	return fmt.Sprintf("%s/wake/%s", TopicPrefixDevice, deviceID)
}

// DevicePresence returns the topic a device publishes its connectivity on.
//
// Example: trustedge/presence/dev-abc123
func (Topics) DevicePresence(deviceID string) string {
	return fmt.Sprintf("%s/presence/%s", TopicPrefixDevice, deviceID)
}

// =============================================================================
// Core Topics
// =============================================================================

// CoreEvent returns the topic for registry lifecycle events.
//
// Example: trustedge/core/event/device_added
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic. Core publishes its
// online/offline payloads here, including the LWT.
//
// Example: trustedge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllDevicePresence returns a pattern matching presence updates from
// every device.
//
// Pattern: trustedge/presence/+
func (Topics) AllDevicePresence() string {
	return fmt.Sprintf("%s/presence/+", TopicPrefixDevice)
}

// AllDeviceAcks returns a pattern matching all device acknowledgements.
//
// Pattern: trustedge/ack/+
func (Topics) AllDeviceAcks() string {
	return fmt.Sprintf("%s/ack/+", TopicPrefixDevice)
}

// AllCoreEvents returns a pattern matching all core events.
//
// Pattern: trustedge/core/event/+
func (Topics) AllCoreEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixCore)
}

// AllTopics returns a pattern matching all TrustEdge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: trustedge/#
func (Topics) AllTopics() string {
	return "trustedge/#"
}

// PresenceDeviceID extracts the device ID from a presence topic.
// Returns "" when the topic is not a presence topic.
func PresenceDeviceID(topic string) string {
	return deviceIDFrom(topic, "presence")
}

// AckDeviceID extracts the device ID from an acknowledgement topic.
// Returns "" when the topic is not an ack topic.
func AckDeviceID(topic string) string {
	return deviceIDFrom(topic, "ack")
}

func deviceIDFrom(topic, category string) string {
	prefix := TopicPrefixDevice + "/" + category + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	return topic[len(prefix):]
}
