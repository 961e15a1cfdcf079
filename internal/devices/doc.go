// Package devices holds the per-device-type handlers.
//
// A handler owns the protocol subscriptions and MQTT surface for one
// physical device: blinds accept tilt commands, remotes classify raw
// button transitions into clicks, occupancy sensors mirror group
// status. Handlers are created during reconciliation and must finish
// Initialize before their device is adopted.
package devices
