package devices

import (
	"testing"
	"time"

	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/leap"
)

type click struct {
	button string
	kind   string
}

// testRemote returns a remote with the classifier wired to a channel
// instead of MQTT, using the quick preset to keep test waits short.
func testRemote(t *testing.T) (*Remote, chan click) {
	t.Helper()

	clicks := make(chan click, 8)
	r := NewRemote(RemoteDeps{
		UUID:    "uuid-1",
		Device:  leap.DeviceRecord{SerialNumber: "100", Buttons: []leap.Href{{Href: "/buttongroup/2"}}},
		Options: ResolveOptions(config.OptionsConfig{DoubleClickSpeed: "quick", LongClickSpeed: "quick"}),
		Logger:  logging.Default(),
	})
	r.emit = func(button, kind string) {
		clicks <- click{button, kind}
	}
	return r, clicks
}

func waitClick(t *testing.T, clicks chan click) click {
	t.Helper()
	select {
	case c := <-clicks:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no click emitted")
		return click{}
	}
}

func noClick(t *testing.T, clicks chan click, within time.Duration) {
	t.Helper()
	select {
	case c := <-clicks:
		t.Fatalf("unexpected click %+v", c)
	case <-time.After(within):
	}
}

func TestRemote_SingleClick(t *testing.T) {
	r, clicks := testRemote(t)
	base := time.Now()

	r.onAction("/button/1", leap.ButtonActionPress, base)
	r.onAction("/button/1", leap.ButtonActionRelease, base.Add(100*time.Millisecond))

	got := waitClick(t, clicks)
	if got.kind != ClickSingle || got.button != "/button/1" {
		t.Errorf("click = %+v, want single on /button/1", got)
	}
}

func TestRemote_DoubleClick(t *testing.T) {
	r, clicks := testRemote(t)
	base := time.Now()

	r.onAction("/button/1", leap.ButtonActionPress, base)
	r.onAction("/button/1", leap.ButtonActionRelease, base.Add(80*time.Millisecond))
	// Second press lands inside the double click window.
	r.onAction("/button/1", leap.ButtonActionPress, base.Add(160*time.Millisecond))
	r.onAction("/button/1", leap.ButtonActionRelease, base.Add(240*time.Millisecond))

	got := waitClick(t, clicks)
	if got.kind != ClickDouble {
		t.Errorf("click = %+v, want double", got)
	}
	// The armed single click must not also fire.
	noClick(t, clicks, 400*time.Millisecond)
}

func TestRemote_PressAfterSingleFiredStartsFresh(t *testing.T) {
	r, clicks := testRemote(t)
	base := time.Now()

	// Seed a button whose single click timer has already fired. The
	// next press finds a dead timer: the first click was published, so
	// it must start a fresh sequence rather than promote the release
	// to a double.
	fired := time.AfterFunc(0, func() {})
	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	r.buttons["/button/1"] = &buttonState{pending: fired}
	r.mu.Unlock()

	r.onAction("/button/1", leap.ButtonActionPress, base)
	r.onAction("/button/1", leap.ButtonActionRelease, base.Add(80*time.Millisecond))

	got := waitClick(t, clicks)
	if got.kind != ClickSingle {
		t.Errorf("click = %+v, want single", got)
	}
}

func TestRemote_LongClick(t *testing.T) {
	r, clicks := testRemote(t)
	base := time.Now()

	r.onAction("/button/1", leap.ButtonActionPress, base)
	// Quick preset long press threshold is 350ms.
	r.onAction("/button/1", leap.ButtonActionRelease, base.Add(500*time.Millisecond))

	got := waitClick(t, clicks)
	if got.kind != ClickLong {
		t.Errorf("click = %+v, want long", got)
	}
}

func TestRemote_ButtonsIndependent(t *testing.T) {
	r, clicks := testRemote(t)
	base := time.Now()

	// A press on button 2 must not turn button 1's pending single
	// click into a double.
	r.onAction("/button/1", leap.ButtonActionPress, base)
	r.onAction("/button/1", leap.ButtonActionRelease, base.Add(50*time.Millisecond))
	r.onAction("/button/2", leap.ButtonActionPress, base.Add(100*time.Millisecond))
	r.onAction("/button/2", leap.ButtonActionRelease, base.Add(150*time.Millisecond))

	kinds := map[string]string{}
	for i := 0; i < 2; i++ {
		c := waitClick(t, clicks)
		kinds[c.button] = c.kind
	}
	if kinds["/button/1"] != ClickSingle || kinds["/button/2"] != ClickSingle {
		t.Errorf("clicks = %v, want singles on both buttons", kinds)
	}
}
