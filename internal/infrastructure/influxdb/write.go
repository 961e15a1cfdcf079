package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteButtonEvent records a remote button event.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - serial: Serial number of the remote
//   - button: Button identifier (e.g., "2", "raise")
//   - action: Click classification ("single", "double", "long")
func (c *Client) WriteButtonEvent(serial, button, action string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"button_events",
		map[string]string{
			"serial": serial,
			"button": button,
		},
		map[string]interface{}{
			"action": action,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteOccupancy records an occupancy sensor transition.
//
// Parameters:
//   - serial: Serial number of the sensor
//   - occupied: Whether the monitored space is now occupied
func (c *Client) WriteOccupancy(serial string, occupied bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"occupancy",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"occupied": occupied,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBlindTilt records a blind tilt level report.
//
// Parameters:
//   - serial: Serial number of the blind
//   - tilt: Reported tilt level (0-100)
func (c *Client) WriteBlindTilt(serial string, tilt float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"blind_tilt",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"tilt": tilt,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteReconcileStats records the outcome of one device reconciliation pass.
//
// Parameters:
//   - bridgeID: The bridge the pass ran against
//   - total: Devices returned by the inventory fetch
//   - created: New accessories registered during the pass
//   - failed: Devices whose processing failed
func (c *Client) WriteReconcileStats(bridgeID string, total, created, failed int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"reconcile",
		map[string]string{
			"bridge": bridgeID,
		},
		map[string]interface{}{
			"total":   total,
			"created": created,
			"failed":  failed,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
