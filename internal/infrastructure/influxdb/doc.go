// Package influxdb provides optional time-series telemetry for Leapgate.
//
// When enabled, the gateway records button events, occupancy transitions,
// blind tilt reports, and reconciliation statistics. Telemetry is strictly
// best-effort: writes are batched, asynchronous, and silently dropped when
// the client is disconnected. Nothing in the gateway depends on it for
// correctness.
//
// Usage:
//
//	tsdb, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
package influxdb
