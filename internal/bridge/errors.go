package bridge

import "errors"

// Sentinel errors for bridge credential and registration failures.
var (
	// ErrNoCredentials is returned when a bridge has been seen on the
	// network but no trust material exists for it. Previously paired
	// bridges do not hit this path.
	ErrNoCredentials = errors.New("bridge: no credentials for bridge")

	// ErrAlreadyRegistered is returned when a connection is registered
	// for a bridge ID that already has a live connection.
	ErrAlreadyRegistered = errors.New("bridge: connection already registered")

	// ErrBadSecret is returned when a bridge's configured trust material
	// cannot be loaded or parsed.
	ErrBadSecret = errors.New("bridge: invalid trust material")
)
