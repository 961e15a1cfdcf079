package accessory

import "errors"

// Sentinel errors for accessory storage.
var (
	// ErrAccessoryExists is returned when an insert collides with an
	// accessory already persisted for the same serial. Concurrent
	// reconcile passes resolve their races through this error.
	ErrAccessoryExists = errors.New("accessory: accessory already exists")

	// ErrAccessoryNotFound is returned when no accessory matches the
	// requested UUID.
	ErrAccessoryNotFound = errors.New("accessory: accessory not found")
)
