package devices

import (
	"context"

	"github.com/mwhitfield/leapgate/internal/infrastructure/influxdb"
	"github.com/mwhitfield/leapgate/internal/infrastructure/mqtt"
	"github.com/mwhitfield/leapgate/internal/leap"
)

// Publisher is the MQTT surface device handlers publish through.
// Satisfied by the MQTT client; nil disables publishing.
type Publisher interface {
	PublishEvent(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Recorder writes device telemetry points. Satisfied by the InfluxDB
// client; nil disables recording.
type Recorder interface {
	WriteButtonEvent(serial, button, action string)
	WriteOccupancy(serial string, occupied bool)
	WriteBlindTilt(serial string, tilt float64)
	WriteReconcileStats(bridgeID string, total, created, failed int)
}

var _ Publisher = (*mqtt.Client)(nil)
var _ Recorder = (*influxdb.Client)(nil)

// Connector is the LEAP session a handler subscribes and commands
// through. It matches the bridge connection's client surface.
type Connector interface {
	Request(ctx context.Context, ct leap.CommuniqueType, url string, body any) (leap.Message, error)
	Subscribe(ctx context.Context, url string, handler func(leap.Message)) (leap.Message, error)
}

// Handler is a running per-device handler. Initialize must complete
// before the device is registered as an accessory; a handler that
// cannot establish its subscriptions fails registration for that
// device only.
type Handler interface {
	Initialize(ctx context.Context) error
}
