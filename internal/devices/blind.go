package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/infrastructure/mqtt"
	"github.com/mwhitfield/leapgate/internal/leap"
)

// Blind drives a tilt-only wood blind: it mirrors zone status onto the
// accessory state topic and accepts tilt commands from the command
// topic.
type Blind struct {
	uuid   string
	serial string
	zone   string
	conn   Connector
	pub    Publisher
	rec    Recorder
	topics mqtt.Topics
	logger *logging.Logger
}

// BlindDeps carries the collaborators a blind handler needs.
type BlindDeps struct {
	UUID      string
	Device    leap.DeviceRecord
	Conn      Connector
	Publisher Publisher
	Recorder  Recorder
	Logger    *logging.Logger
}

// NewBlind builds a handler for a tilt-only blind. The device must
// report at least one local zone.
func NewBlind(deps BlindDeps) (*Blind, error) {
	if len(deps.Device.LocalZones) == 0 {
		return nil, fmt.Errorf("blind %s has no zones", deps.Device.SerialNumber)
	}
	return &Blind{
		uuid:   deps.UUID,
		serial: deps.Device.SerialNumber.String(),
		zone:   deps.Device.LocalZones[0].Href,
		conn:   deps.Conn,
		pub:    deps.Publisher,
		rec:    deps.Recorder,
		logger: deps.Logger,
	}, nil
}

// Initialize subscribes to zone status on the bridge and to the
// accessory command topic. Both must succeed for the blind to be
// manageable.
func (b *Blind) Initialize(ctx context.Context) error {
	resp, err := b.conn.Subscribe(ctx, leap.ZoneStatusURL(b.zone), b.handleZoneStatus)
	if err != nil {
		return fmt.Errorf("subscribing to zone status: %w", err)
	}
	// The subscribe response carries the current state; surface it so
	// the state topic is populated immediately.
	if len(resp.Body) > 0 {
		b.handleZoneStatus(resp)
	}

	if b.pub != nil {
		err := b.pub.Subscribe(b.topics.AccessoryCommand(b.uuid), 1, b.handleCommand)
		if err != nil {
			return fmt.Errorf("subscribing to command topic: %w", err)
		}
	}
	return nil
}

// handleZoneStatus publishes the blind's reported tilt as retained
// accessory state.
func (b *Blind) handleZoneStatus(msg leap.Message) {
	var status leap.OneZoneStatus
	if err := msg.DecodeBody(&status); err != nil {
		b.logger.Warn("undecodable zone status", "serial", b.serial, "error", err)
		return
	}

	tilt := status.ZoneStatus.Tilt
	if b.rec != nil {
		b.rec.WriteBlindTilt(b.serial, float64(tilt))
	}
	if b.pub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"tilt": tilt})
	if err := b.pub.PublishRetained(b.topics.AccessoryState(b.uuid), payload); err != nil {
		b.logger.Warn("failed to publish blind state", "serial", b.serial, "error", err)
	}
}

// handleCommand parses a tilt command off MQTT and forwards it to the
// bridge. Payloads are either a bare number or {"tilt": N}.
func (b *Blind) handleCommand(_ string, payload []byte) error {
	tilt, err := parseTiltCommand(payload)
	if err != nil {
		return fmt.Errorf("blind %s: %w", b.serial, err)
	}

	ctx := context.Background()
	_, err = b.conn.Request(ctx, leap.CommuniqueCreateRequest, leap.ZoneCommandURL(b.zone), leap.GoToTilt(tilt))
	if err != nil {
		return fmt.Errorf("blind %s: sending tilt command: %w", b.serial, err)
	}
	return nil
}

// parseTiltCommand accepts a bare number or a {"tilt": N} object and
// clamps the result to 0-100.
func parseTiltCommand(payload []byte) (int, error) {
	var tilt int
	if n, err := strconv.Atoi(string(payload)); err == nil {
		tilt = n
	} else {
		var body struct {
			Tilt *int `json:"tilt"`
		}
		if err := json.Unmarshal(payload, &body); err != nil || body.Tilt == nil {
			return 0, fmt.Errorf("unparseable tilt command %q", payload)
		}
		tilt = *body.Tilt
	}

	if tilt < 0 {
		tilt = 0
	}
	if tilt > 100 {
		tilt = 100
	}
	return tilt, nil
}
