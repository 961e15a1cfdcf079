package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/infrastructure/mqtt"
	"github.com/mwhitfield/leapgate/internal/leap"
)

// Click kinds emitted by remotes.
const (
	ClickSingle = "single"
	ClickDouble = "double"
	ClickLong   = "long"
)

// Remote drives a Pico remote: raw press/release transitions from the
// bridge are classified into single, double, and long clicks and
// published as accessory events.
type Remote struct {
	uuid   string
	serial string
	groups []leap.Href
	conn   Connector
	pub    Publisher
	rec    Recorder
	opts   Options
	topics mqtt.Topics
	logger *logging.Logger

	now  func() time.Time
	emit func(button, click string)

	mu      sync.Mutex
	buttons map[string]*buttonState
}

// buttonState tracks one button's position in the click state machine.
type buttonState struct {
	pressedAt     time.Time
	pending       *time.Timer
	sawFirstClick bool
}

// RemoteDeps carries the collaborators a remote handler needs.
type RemoteDeps struct {
	UUID      string
	Device    leap.DeviceRecord
	Conn      Connector
	Publisher Publisher
	Recorder  Recorder
	Options   Options
	Logger    *logging.Logger
}

// NewRemote builds a handler for a Pico remote.
func NewRemote(deps RemoteDeps) *Remote {
	r := &Remote{
		uuid:    deps.UUID,
		serial:  deps.Device.SerialNumber.String(),
		groups:  deps.Device.Buttons,
		conn:    deps.Conn,
		pub:     deps.Publisher,
		rec:     deps.Recorder,
		opts:    deps.Options,
		logger:  deps.Logger,
		now:     time.Now,
		buttons: make(map[string]*buttonState),
	}
	r.emit = r.publishClick
	return r
}

// Initialize subscribes to button status for every button group the
// remote reports.
func (r *Remote) Initialize(ctx context.Context) error {
	for _, group := range r.groups {
		if _, err := r.conn.Subscribe(ctx, leap.ButtonStatusURL(group.Href), r.handleButtonEvent); err != nil {
			return fmt.Errorf("subscribing to button group %s: %w", group.Href, err)
		}
	}
	return nil
}

// handleButtonEvent feeds one raw transition into the classifier.
func (r *Remote) handleButtonEvent(msg leap.Message) {
	var event leap.ButtonStatusEvent
	if err := msg.DecodeBody(&event); err != nil {
		r.logger.Warn("undecodable button event", "serial", r.serial, "error", err)
		return
	}
	r.onAction(event.Button.Href, event.ButtonEvent.EventType, r.now())
}

// onAction advances the per-button state machine.
//
// A release after a hold of LongPressThreshold or more is a long click.
// A short release arms a single click that fires after
// DoubleClickWindow unless a second press lands first, in which case
// the second short release is a double click.
func (r *Remote) onAction(button string, action leap.ButtonAction, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.buttons[button]
	if state == nil {
		state = &buttonState{}
		r.buttons[button] = state
	}

	switch action {
	case leap.ButtonActionPress:
		state.pressedAt = t
		if state.pending != nil {
			// Stop reports whether the armed single click was actually
			// consumed; a timer that already fired published it, and
			// this press starts a fresh sequence.
			if state.pending.Stop() {
				state.sawFirstClick = true
			}
			state.pending = nil
		}

	case leap.ButtonActionRelease:
		held := t.Sub(state.pressedAt)
		switch {
		case held >= r.opts.LongPressThreshold:
			state.sawFirstClick = false
			r.emit(button, ClickLong)
		case state.sawFirstClick:
			state.sawFirstClick = false
			r.emit(button, ClickDouble)
		default:
			state.pending = time.AfterFunc(r.opts.DoubleClickWindow, func() {
				r.mu.Lock()
				state.pending = nil
				r.mu.Unlock()
				r.emit(button, ClickSingle)
			})
		}
	}
}

// publishClick emits a classified click as an accessory event.
func (r *Remote) publishClick(button, click string) {
	if r.rec != nil {
		r.rec.WriteButtonEvent(r.serial, button, click)
	}
	if r.pub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"button": button,
		"click":  click,
	})
	if err := r.pub.PublishEvent(r.topics.AccessoryEvent(r.uuid), payload); err != nil {
		r.logger.Warn("failed to publish click", "serial", r.serial, "error", err)
	}
}
