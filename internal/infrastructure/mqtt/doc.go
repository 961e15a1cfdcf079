// Package mqtt provides the MQTT client for Leapgate's outward-facing
// device surface.
//
// Everything the gateway learns from its bridges is mirrored onto MQTT:
// accessory state and metadata (retained), button and occupancy events,
// per-bridge connection status, and unsolicited protocol notifications
// forwarded verbatim. Commands for controllable accessories (blind tilt)
// arrive on per-accessory command topics.
//
// The client wraps eclipse/paho.mqtt.golang with:
//   - Automatic reconnection and subscription restoration
//   - Last Will and Testament on leapgate/system/status
//   - Panic recovery around message handlers
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.PublishRetained(topics.AccessoryState(id), payload)
package mqtt
