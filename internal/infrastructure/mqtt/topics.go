package mqtt

import "fmt"

// Topic prefixes for the Leapgate MQTT surface.
//
// Accessory topics use the scheme: leapgate/accessory/{uuid}/{suffix}
// Bridge topics use the scheme:    leapgate/bridge/{id}/{suffix}
const (
	// TopicPrefix is the base for all Leapgate topics.
	TopicPrefix = "leapgate"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "leapgate/system"
)

// Topics provides builders for Leapgate MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.AccessoryState("0f6e...")
//	// Returns: "leapgate/accessory/0f6e.../state"
type Topics struct{}

// AccessoryState returns the retained state topic for one accessory.
//
// Example: leapgate/accessory/0f6e.../state
func (Topics) AccessoryState(uuid string) string {
	return fmt.Sprintf("%s/accessory/%s/state", TopicPrefix, uuid)
}

// AccessoryEvent returns the event topic for one accessory (button presses,
// occupancy transitions). Not retained.
//
// Example: leapgate/accessory/0f6e.../event
func (Topics) AccessoryEvent(uuid string) string {
	return fmt.Sprintf("%s/accessory/%s/event", TopicPrefix, uuid)
}

// AccessoryCommand returns the command topic the gateway subscribes to for
// one accessory.
//
// Example: leapgate/accessory/0f6e.../command
func (Topics) AccessoryCommand(uuid string) string {
	return fmt.Sprintf("%s/accessory/%s/command", TopicPrefix, uuid)
}

// AccessoryMeta returns the retained metadata topic announcing one accessory.
//
// Example: leapgate/accessory/0f6e.../meta
func (Topics) AccessoryMeta(uuid string) string {
	return fmt.Sprintf("%s/accessory/%s/meta", TopicPrefix, uuid)
}

// BridgeStatus returns the retained connection status topic for one bridge.
//
// Example: leapgate/bridge/aa11/status
func (Topics) BridgeStatus(bridgeID string) string {
	return fmt.Sprintf("%s/bridge/%s/status", TopicPrefix, bridgeID)
}

// BridgeEvent returns the topic carrying unsolicited protocol notifications
// from one bridge, forwarded verbatim.
//
// Example: leapgate/bridge/aa11/event
func (Topics) BridgeEvent(bridgeID string) string {
	return fmt.Sprintf("%s/bridge/%s/event", TopicPrefix, bridgeID)
}

// SystemStatus returns the gateway's own status topic (online/offline/LWT).
//
// Example: leapgate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
