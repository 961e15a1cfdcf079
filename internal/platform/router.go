package platform

import (
	"context"
	"time"

	"github.com/mwhitfield/leapgate/internal/leap"
)

// routeUnsolicited handles one unsolicited message from a bridge.
//
// "Device heard" notifications are consumed here: they schedule a
// debounced reconcile pass and are not forwarded to subscribers.
// Everything else fans out to the subscriber list.
func (p *Platform) routeUnsolicited(bridgeID string, msg leap.Message) {
	if msg.CommuniqueType == leap.CommuniqueUpdateResponse && msg.Header.URL == leap.DeviceHeardURL {
		p.handleDeviceHeard(bridgeID, msg)
		return
	}
	p.fanOut(bridgeID, msg)
}

// handleDeviceHeard schedules a reconcile pass for the bridge after
// the debounce delay. At most one pass is pending per bridge; further
// notifications while one is pending are absorbed into it. The delay
// gives the bridge time to finish pairing before the inventory is
// fetched.
func (p *Platform) handleDeviceHeard(bridgeID string, msg leap.Message) {
	var event leap.DeviceHeardEvent
	if err := msg.DecodeBody(&event); err != nil {
		p.logger.Warn("undecodable device heard notification", "bridge_id", bridgeID, "error", err)
		return
	}
	p.logger.Info("bridge heard a device",
		"bridge_id", bridgeID,
		"serial", event.DeviceHeard.SerialNumber,
		"device_type", event.DeviceHeard.DeviceType)

	p.pendingMu.Lock()
	if p.pending[bridgeID] {
		p.pendingMu.Unlock()
		return
	}
	p.pending[bridgeID] = true
	p.pendingMu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		timer := time.NewTimer(p.reconcileDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-p.ctx.Done():
			return
		}

		p.pendingMu.Lock()
		delete(p.pending, bridgeID)
		p.pendingMu.Unlock()

		ctx, cancel := context.WithTimeout(p.ctx, connectTimeout)
		defer cancel()
		conn, err := p.manager.Get(ctx, bridgeID)
		if err != nil {
			p.logger.Warn("bridge not connected for scheduled reconcile", "bridge_id", bridgeID, "error", err)
			return
		}
		p.runReconcile(conn)
	}()
}
