// Package bridge tracks known bridges and their live connections.
//
// A SecretStore holds the pairing credentials for every configured
// bridge; a Manager maps bridge IDs to live LEAP sessions and lets
// consumers wait for a bridge that has not connected yet.
package bridge
