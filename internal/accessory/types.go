package accessory

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/leapgate/internal/leap"
)

// namespace seeds the deterministic accessory UUIDs. Changing it would
// orphan every persisted accessory, so it never changes.
var namespace = uuid.MustParse("5c659cdb-94a0-4c5a-9d54-92bb1e5482c1")

// IDForSerial derives the stable accessory UUID for a device serial.
// The same serial always yields the same UUID, across restarts and
// across bridges.
func IDForSerial(serial string) string {
	return uuid.NewSHA1(namespace, []byte(serial)).String()
}

// Context is the per-accessory state persisted alongside the UUID. It
// carries enough to re-attach handlers after a restart without talking
// to the bridge first.
type Context struct {
	BridgeID string            `json:"bridge_id"`
	Device   leap.DeviceRecord `json:"device"`
}

// Accessory is one managed device, identified by a UUID derived from
// its serial.
type Accessory struct {
	UUID      string
	Name      string
	Context   Context
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds the accessory record for a device seen on a bridge.
func New(bridgeID string, device leap.DeviceRecord) Accessory {
	return Accessory{
		UUID: IDForSerial(device.SerialNumber.String()),
		Name: device.QualifiedName(),
		Context: Context{
			BridgeID: bridgeID,
			Device:   device,
		},
	}
}
