// Package platform orchestrates the gateway's lifecycle.
//
// On start it restores the persisted accessory set, then browses the
// network for bridges, connects to the ones it holds credentials for,
// and reconciles each bridge's device inventory against the known set.
// Unsolicited protocol notifications are routed here: "device heard"
// events schedule a debounced re-reconciliation, everything else fans
// out to registered subscribers.
package platform
