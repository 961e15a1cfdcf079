// Package api serves the gateway's HTTP surface: health, JWT-gated
// accessory and bridge inspection, and a WebSocket stream of forwarded
// bridge events.
package api
