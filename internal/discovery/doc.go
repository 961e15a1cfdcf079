// Package discovery locates bridges on the local network.
//
// Bridges announce themselves over multicast DNS under the
// "_lutron._tcp" service type. The browser turns those announcements
// into typed events carrying the bridge identity and dial address.
package discovery
