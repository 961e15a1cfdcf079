package devices

import (
	"time"

	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
)

// ClickSpeed names a preset for button press timing windows.
type ClickSpeed string

// Click speed presets, fastest to slowest.
const (
	SpeedQuick   ClickSpeed = "quick"
	SpeedDefault ClickSpeed = "default"
	SpeedRelaxed ClickSpeed = "relaxed"
)

// Options are the runtime toggles that shape device behaviour.
type Options struct {
	// FilterRemotes drops remotes (Pico and similar) from management.
	FilterRemotes bool

	// FilterBlinds drops blinds from management.
	FilterBlinds bool

	// DoubleClickWindow is how long after a release a second press
	// still counts as a double click.
	DoubleClickWindow time.Duration

	// LongPressThreshold is how long a button must be held before the
	// press is classified as a long click.
	LongPressThreshold time.Duration
}

// doubleClickWindows maps a preset to the double click window.
var doubleClickWindows = map[ClickSpeed]time.Duration{
	SpeedQuick:   250 * time.Millisecond,
	SpeedDefault: 350 * time.Millisecond,
	SpeedRelaxed: 450 * time.Millisecond,
}

// longPressThresholds maps a preset to the long press threshold.
var longPressThresholds = map[ClickSpeed]time.Duration{
	SpeedQuick:   350 * time.Millisecond,
	SpeedDefault: 500 * time.Millisecond,
	SpeedRelaxed: 750 * time.Millisecond,
}

// ResolveOptions converts configured option strings into concrete
// timing values. Unknown presets fall back to the defaults; the config
// validator rejects them before this point in normal operation.
func ResolveOptions(cfg config.OptionsConfig) Options {
	opts := Options{
		FilterRemotes:      cfg.FilterRemotes,
		FilterBlinds:       cfg.FilterBlinds,
		DoubleClickWindow:  doubleClickWindows[SpeedDefault],
		LongPressThreshold: longPressThresholds[SpeedDefault],
	}
	if w, ok := doubleClickWindows[ClickSpeed(cfg.DoubleClickSpeed)]; ok {
		opts.DoubleClickWindow = w
	}
	if th, ok := longPressThresholds[ClickSpeed(cfg.LongClickSpeed)]; ok {
		opts.LongPressThreshold = th
	}
	return opts
}
