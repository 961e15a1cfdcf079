package devices

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/infrastructure/mqtt"
	"github.com/mwhitfield/leapgate/internal/leap"
)

// Occupancy drives an occupancy sensor: group status updates from the
// bridge are published as retained accessory state.
type Occupancy struct {
	uuid   string
	serial string
	conn   Connector
	pub    Publisher
	rec    Recorder
	topics mqtt.Topics
	logger *logging.Logger
}

// OccupancyDeps carries the collaborators an occupancy handler needs.
type OccupancyDeps struct {
	UUID      string
	Device    leap.DeviceRecord
	Conn      Connector
	Publisher Publisher
	Recorder  Recorder
	Logger    *logging.Logger
}

// NewOccupancy builds a handler for an occupancy sensor.
func NewOccupancy(deps OccupancyDeps) *Occupancy {
	return &Occupancy{
		uuid:   deps.UUID,
		serial: deps.Device.SerialNumber.String(),
		conn:   deps.Conn,
		pub:    deps.Publisher,
		rec:    deps.Recorder,
		logger: deps.Logger,
	}
}

// Initialize subscribes to occupancy group status. The subscription
// must be live before the sensor is registered; a sensor whose
// subscription fails is not adopted.
func (o *Occupancy) Initialize(ctx context.Context) error {
	resp, err := o.conn.Subscribe(ctx, leap.OccupancyGroupStatusURL, o.handleStatus)
	if err != nil {
		return fmt.Errorf("subscribing to occupancy status: %w", err)
	}
	if len(resp.Body) > 0 {
		o.handleStatus(resp)
	}
	return nil
}

// handleStatus publishes each reported group transition as retained
// accessory state.
func (o *Occupancy) handleStatus(msg leap.Message) {
	var body leap.MultipleOccupancyGroupStatus
	if err := msg.DecodeBody(&body); err != nil {
		o.logger.Warn("undecodable occupancy status", "serial", o.serial, "error", err)
		return
	}

	for _, status := range body.OccupancyGroupStatuses {
		if status.OccupancyStatus == leap.OccupancyUnknown {
			continue
		}
		occupied := status.OccupancyStatus == leap.OccupancyOccupied

		if o.rec != nil {
			o.rec.WriteOccupancy(o.serial, occupied)
		}
		if o.pub == nil {
			continue
		}
		payload, _ := json.Marshal(map[string]any{
			"group":    status.OccupancyGroup.Href,
			"occupied": occupied,
		})
		if err := o.pub.PublishRetained(o.topics.AccessoryState(o.uuid), payload); err != nil {
			o.logger.Warn("failed to publish occupancy state", "serial", o.serial, "error", err)
		}
	}
}
