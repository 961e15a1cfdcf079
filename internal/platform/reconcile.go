package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwhitfield/leapgate/internal/accessory"
	"github.com/mwhitfield/leapgate/internal/bridge"
	"github.com/mwhitfield/leapgate/internal/devices"
	"github.com/mwhitfield/leapgate/internal/leap"
)

// deviceKind is the management classification for a reported device
// type. The reported set is open; anything unrecognised is
// kindUnknown and tolerated.
type deviceKind int

const (
	kindUnknown deviceKind = iota
	kindBlind
	kindRemote
	kindOccupancy
	kindNative
	kindUnsupported
)

// classifications maps every recognised device type to how the
// gateway treats it. Native types are handled by the bridge's own app
// and skipped silently; unsupported types are known hardware the
// gateway cannot drive yet.
var classifications = map[string]deviceKind{
	"SerenaTiltOnlyWoodBlind": kindBlind,

	"Pico2Button":           kindRemote,
	"Pico2ButtonRaiseLower": kindRemote,
	"Pico3Button":           kindRemote,
	"Pico3ButtonRaiseLower": kindRemote,
	"Pico4Button2Group":     kindRemote,
	"Pico4ButtonScene":      kindRemote,
	"Pico4ButtonZone":       kindRemote,

	"RPSOccupancySensor":               kindOccupancy,
	"RPSCeilingMountedOccupancySensor": kindOccupancy,

	"SmartBridge":        kindNative,
	"SmartBridgePro":     kindNative,
	"WallSwitch":         kindNative,
	"WallDimmer":         kindNative,
	"PlugInDimmer":       kindNative,
	"FanSpeedController": kindNative,

	"SerenaHoneycombShade": kindUnsupported,
	"SerenaRollerShade":    kindUnsupported,
	"QsWirelessShade":      kindUnsupported,
}

// classify maps a reported device type to its management kind.
func classify(deviceType string) deviceKind {
	return classifications[deviceType]
}

// runReconcile performs one reconcile pass, recovering from panics so
// a misbehaving handler cannot take the platform down.
func (p *Platform) runReconcile(conn *bridge.Connection) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("reconcile pass panicked", "bridge_id", conn.ID(), "panic", r)
		}
	}()
	p.reconcile(p.ctx, conn)
}

// reconcile fetches the bridge's inventory and adopts every new
// manageable device. Devices are processed sequentially; one device's
// failure never blocks the rest of the pass, but an inventory fetch
// failure aborts the whole pass.
func (p *Platform) reconcile(ctx context.Context, conn *bridge.Connection) {
	logger := p.logger.With("bridge_id", conn.ID())

	inventory, err := conn.Client().Devices(ctx)
	if err != nil {
		logger.Warn("failed to fetch device inventory, skipping pass", "error", err)
		return
	}

	var created, failed int
	for _, device := range inventory {
		switch err := p.adoptDevice(ctx, conn, device); {
		case err == nil:
			created++
		case errors.Is(err, errSkipped):
		default:
			failed++
			logger.Error("failed to adopt device",
				"name", device.QualifiedName(), "serial", device.SerialNumber,
				"device_type", device.DeviceType, "error", err)
		}
	}

	logger.Info("reconcile pass complete",
		"total", len(inventory), "created", created, "failed", failed)
	if p.rec != nil {
		p.rec.WriteReconcileStats(conn.ID(), len(inventory), created, failed)
	}
}

// errSkipped marks a device that was deliberately not adopted.
var errSkipped = errors.New("platform: device skipped")

// adoptDevice decides whether one reported device becomes an
// accessory, and wires it up if so. Returns errSkipped for devices
// that are filtered, already managed, or not the gateway's to manage.
func (p *Platform) adoptDevice(ctx context.Context, conn *bridge.Connection, device leap.DeviceRecord) error {
	logger := p.logger.With("bridge_id", conn.ID(), "serial", device.SerialNumber, "device_type", device.DeviceType)

	kind := classify(device.DeviceType)
	switch kind {
	case kindNative:
		// The bridge's own ecosystem already exposes these.
		logger.Debug("device handled natively, skipping")
		return errSkipped
	case kindUnsupported:
		logger.Info("device type not supported, skipping")
		return errSkipped
	case kindUnknown:
		logger.Info("unrecognised device type, skipping")
		return errSkipped
	case kindRemote:
		if p.options.FilterRemotes {
			logger.Warn("remotes filtered by configuration, skipping")
			return errSkipped
		}
	case kindBlind:
		if p.options.FilterBlinds {
			logger.Warn("blinds filtered by configuration, skipping")
			return errSkipped
		}
	}

	if device.SerialNumber == "" {
		logger.Info("device reports no serial, skipping")
		return errSkipped
	}

	acc := accessory.New(conn.ID(), device)
	if p.index.Has(acc.UUID) {
		return errSkipped
	}

	handler, err := p.buildHandler(kind, acc.UUID, device, conn.Client())
	if err != nil {
		return err
	}
	if err := handler.Initialize(ctx); err != nil {
		return fmt.Errorf("initialising handler: %w", err)
	}

	if err := p.registry.Register(ctx, acc); err != nil {
		if errors.Is(err, accessory.ErrAccessoryExists) {
			// A concurrent pass adopted this device first.
			logger.Info("device already persisted, skipping")
			return errSkipped
		}
		return fmt.Errorf("registering accessory: %w", err)
	}

	if !p.index.Add(acc) {
		return errSkipped
	}
	logger.Info("device adopted", "uuid", acc.UUID, "name", acc.Name)
	return nil
}

// buildHandler constructs the per-type handler for a manageable device.
func (p *Platform) buildHandler(kind deviceKind, uuid string, device leap.DeviceRecord, conn devices.Connector) (devices.Handler, error) {
	switch kind {
	case kindBlind:
		return devices.NewBlind(devices.BlindDeps{
			UUID:      uuid,
			Device:    device,
			Conn:      conn,
			Publisher: p.pub,
			Recorder:  p.rec,
			Logger:    p.logger,
		})
	case kindRemote:
		return devices.NewRemote(devices.RemoteDeps{
			UUID:      uuid,
			Device:    device,
			Conn:      conn,
			Publisher: p.pub,
			Recorder:  p.rec,
			Options:   p.options,
			Logger:    p.logger,
		}), nil
	case kindOccupancy:
		return devices.NewOccupancy(devices.OccupancyDeps{
			UUID:      uuid,
			Device:    device,
			Conn:      conn,
			Publisher: p.pub,
			Recorder:  p.rec,
			Logger:    p.logger,
		}), nil
	default:
		return nil, fmt.Errorf("no handler for device type %q", device.DeviceType)
	}
}
