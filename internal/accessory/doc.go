// Package accessory manages the durable set of devices the gateway has
// adopted.
//
// Identity is a UUID derived deterministically from the device serial,
// so the same physical device maps to the same accessory across
// restarts and bridges. The Index holds the live in-memory set; the
// Registry persists new members and announces them over MQTT.
package accessory
