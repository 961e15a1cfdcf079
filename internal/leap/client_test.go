package leap

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"
)

// fakeBridge drives the far end of a net.Pipe, decoding client requests
// and letting tests script responses.
type fakeBridge struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	reqs chan Message
}

func newFakeBridge(t *testing.T) (*Client, *fakeBridge) {
	t.Helper()
	clientEnd, bridgeEnd := net.Pipe()

	b := &fakeBridge{
		conn: bridgeEnd,
		enc:  json.NewEncoder(bridgeEnd),
		dec:  json.NewDecoder(bridgeEnd),
		reqs: make(chan Message, 8),
	}
	go func() {
		for {
			var msg Message
			if err := b.dec.Decode(&msg); err != nil {
				close(b.reqs)
				return
			}
			b.reqs <- msg
		}
	}()

	c := newClient(clientEnd)
	t.Cleanup(func() {
		c.Close()
		bridgeEnd.Close()
	})
	return c, b
}

// nextRequest returns the next request the client sent, or fails the test.
func (b *fakeBridge) nextRequest(t *testing.T) Message {
	t.Helper()
	select {
	case msg, ok := <-b.reqs:
		if !ok {
			t.Fatal("bridge connection closed before request arrived")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client request")
		return Message{}
	}
}

// respond sends a tagged response for a received request.
func (b *fakeBridge) respond(t *testing.T, req Message, ct CommuniqueType, status StatusCode, body any) {
	t.Helper()
	msg := Message{
		CommuniqueType: ct,
		Header: Header{
			StatusCode: status,
			URL:        req.Header.URL,
			ClientTag:  req.Header.ClientTag,
		},
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling response body: %v", err)
		}
		msg.Body = raw
	}
	if err := b.enc.Encode(msg); err != nil {
		t.Fatalf("writing response: %v", err)
	}
}

// notify sends an untagged message.
func (b *fakeBridge) notify(t *testing.T, ct CommuniqueType, url string, body any) {
	t.Helper()
	msg := Message{
		CommuniqueType: ct,
		Header:         Header{StatusCode: "200 OK", URL: url},
	}
	if body != nil {
		raw, _ := json.Marshal(body)
		msg.Body = raw
	}
	if err := b.enc.Encode(msg); err != nil {
		t.Fatalf("writing notification: %v", err)
	}
}

func TestRequest_CorrelatesByTag(t *testing.T) {
	c, b := newFakeBridge(t)

	type result struct {
		msg Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := c.Request(context.Background(), CommuniqueReadRequest, PingURL, nil)
		done <- result{msg, err}
	}()

	req := b.nextRequest(t)
	if req.CommuniqueType != CommuniqueReadRequest {
		t.Errorf("CommuniqueType = %q, want ReadRequest", req.CommuniqueType)
	}
	if req.Header.ClientTag == "" {
		t.Error("request has no ClientTag")
	}
	b.respond(t, req, CommuniqueReadResponse, "200 OK", nil)

	res := <-done
	if res.err != nil {
		t.Fatalf("Request() error = %v", res.err)
	}
	if res.msg.Header.ClientTag != req.Header.ClientTag {
		t.Errorf("response tag = %q, want %q", res.msg.Header.ClientTag, req.Header.ClientTag)
	}
}

func TestRequest_BadStatus(t *testing.T) {
	c, b := newFakeBridge(t)

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), CommuniqueReadRequest, "/nope", nil)
		done <- err
	}()

	req := b.nextRequest(t)
	b.respond(t, req, CommuniqueExceptionResponse, "404 NotFound", nil)

	if err := <-done; !errors.Is(err, ErrBadStatus) {
		t.Errorf("error = %v, want ErrBadStatus", err)
	}
}

func TestDevices_ParsesInventory(t *testing.T) {
	c, b := newFakeBridge(t)

	type result struct {
		devices []DeviceRecord
		err     error
	}
	done := make(chan result, 1)
	go func() {
		devices, err := c.Devices(context.Background())
		done <- result{devices, err}
	}()

	req := b.nextRequest(t)
	if req.Header.URL != DeviceListURL {
		t.Errorf("URL = %q, want %q", req.Header.URL, DeviceListURL)
	}
	b.respond(t, req, CommuniqueReadResponse, "200 OK", MultipleDeviceDefinition{
		Devices: []DeviceRecord{
			{Name: "Pico", DeviceType: "Pico3Button", SerialNumber: "12345", FullyQualifiedName: []string{"Living Room", "Pico"}},
			{Name: "Bridge", DeviceType: "SmartBridge", SerialNumber: "99999"},
		},
	})

	res := <-done
	if res.err != nil {
		t.Fatalf("Devices() error = %v", res.err)
	}
	if len(res.devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(res.devices))
	}
	if got := res.devices[0].QualifiedName(); got != "Living Room Pico" {
		t.Errorf("QualifiedName() = %q, want %q", got, "Living Room Pico")
	}
}

func TestSubscribe_RoutesByURL(t *testing.T) {
	c, b := newFakeBridge(t)

	received := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		_, err := c.Subscribe(context.Background(), OccupancyGroupStatusURL, func(msg Message) {
			received <- msg
		})
		done <- err
	}()

	req := b.nextRequest(t)
	b.respond(t, req, CommuniqueSubscribeResponse, "200 OK", nil)
	if err := <-done; err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	b.notify(t, CommuniqueReadResponse, OccupancyGroupStatusURL, MultipleOccupancyGroupStatus{
		OccupancyGroupStatuses: []OccupancyGroupStatus{
			{OccupancyGroup: Href{Href: "/occupancygroup/2"}, OccupancyStatus: OccupancyOccupied},
		},
	})

	select {
	case msg := <-received:
		var body MultipleOccupancyGroupStatus
		if err := msg.DecodeBody(&body); err != nil {
			t.Fatalf("DecodeBody() error = %v", err)
		}
		if len(body.OccupancyGroupStatuses) != 1 || body.OccupancyGroupStatuses[0].OccupancyStatus != OccupancyOccupied {
			t.Errorf("unexpected body: %+v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription handler never invoked")
	}
}

func TestUnsolicited_FallsThrough(t *testing.T) {
	c, b := newFakeBridge(t)

	received := make(chan Message, 1)
	c.OnUnsolicited(func(msg Message) {
		received <- msg
	})

	b.notify(t, CommuniqueUpdateResponse, DeviceHeardURL, DeviceHeardEvent{
		DeviceHeard: DeviceHeard{SerialNumber: "555", DeviceType: "Pico2Button"},
	})

	select {
	case msg := <-received:
		if msg.Header.URL != DeviceHeardURL {
			t.Errorf("URL = %q, want %q", msg.Header.URL, DeviceHeardURL)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("unsolicited callback never invoked")
	}
}

func TestClose_FailsPendingRequests(t *testing.T) {
	c, b := newFakeBridge(t)

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), CommuniqueReadRequest, PingURL, nil)
		done <- err
	}()

	b.nextRequest(t)
	c.Close()

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}
