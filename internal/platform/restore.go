package platform

import (
	"context"
	"fmt"

	"github.com/mwhitfield/leapgate/internal/accessory"
)

// restoreAccessories loads the persisted accessory set into the index
// before discovery starts, so reconcile passes never re-adopt a device
// adopted in an earlier run.
//
// Handlers for restored accessories attach in the background once
// their bridge connects; restoration itself never waits on a bridge.
func (p *Platform) restoreAccessories(ctx context.Context) error {
	restored, err := p.registry.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring accessory set: %w", err)
	}

	for _, acc := range restored {
		if !p.index.Add(acc) {
			p.logger.Warn("duplicate accessory in store, ignoring", "uuid", acc.UUID)
			continue
		}

		kind := classify(acc.Context.Device.DeviceType)
		switch kind {
		case kindBlind, kindRemote, kindOccupancy:
			p.attachWhenConnected(acc, kind)
		default:
			// Stored under an older classification or unknown type;
			// keep it indexed but unmanaged.
			p.logger.Warn("restored accessory has unmanageable device type",
				"uuid", acc.UUID, "device_type", acc.Context.Device.DeviceType)
		}
	}

	p.logger.Info("accessory set restored", "count", len(restored))
	return nil
}

// attachWhenConnected waits for the accessory's bridge to connect and
// then brings up its handler. Failures degrade that one accessory;
// the rest of the platform is unaffected.
func (p *Platform) attachWhenConnected(acc accessory.Accessory, kind deviceKind) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		conn, err := p.manager.Get(p.ctx, acc.Context.BridgeID)
		if err != nil {
			return
		}

		handler, err := p.buildHandler(kind, acc.UUID, acc.Context.Device, conn.Client())
		if err != nil {
			p.logger.Error("failed to build handler for restored accessory", "uuid", acc.UUID, "error", err)
			return
		}
		if err := handler.Initialize(p.ctx); err != nil {
			p.logger.Error("failed to initialise restored accessory", "uuid", acc.UUID, "error", err)
		}
	}()
}
