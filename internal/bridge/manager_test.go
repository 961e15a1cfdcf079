package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwhitfield/leapgate/internal/leap"
)

// stubLeapClient satisfies LeapClient for manager tests; no method is
// expected to be called.
type stubLeapClient struct{}

func (stubLeapClient) Request(context.Context, leap.CommuniqueType, string, any) (leap.Message, error) {
	return leap.Message{}, nil
}
func (stubLeapClient) Devices(context.Context) ([]leap.DeviceRecord, error) { return nil, nil }
func (stubLeapClient) Subscribe(context.Context, string, func(leap.Message)) (leap.Message, error) {
	return leap.Message{}, nil
}
func (stubLeapClient) OnUnsolicited(func(leap.Message)) {}
func (stubLeapClient) Ping(context.Context) error       { return nil }
func (stubLeapClient) Close() error                     { return nil }
func (stubLeapClient) Done() <-chan struct{}            { return nil }

func testConn(id string) *Connection {
	return NewConnection(id, "192.0.2.10:8081", stubLeapClient{})
}

func TestManager_RegisterAndPeek(t *testing.T) {
	m := NewManager()

	if _, ok := m.Peek("bridge1"); ok {
		t.Fatal("Peek() hit before Register")
	}
	if err := m.Register(testConn("bridge1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	conn, ok := m.Peek("BRIDGE1")
	if !ok {
		t.Fatal("Peek() miss after Register (case-insensitive)")
	}
	if conn.ID() != "bridge1" {
		t.Errorf("ID() = %q, want bridge1", conn.ID())
	}
}

func TestManager_RegisterDuplicate(t *testing.T) {
	m := NewManager()

	if err := m.Register(testConn("bridge1")); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := m.Register(testConn("Bridge1")); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second Register() error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestManager_GetBlocksUntilRegister(t *testing.T) {
	m := NewManager()

	type result struct {
		conn *Connection
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := m.Get(context.Background(), "bridge1")
		done <- result{conn, err}
	}()

	// Give the waiter a moment to park.
	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Get() returned before Register")
	default:
	}

	if err := m.Register(testConn("bridge1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Get() error = %v", res.err)
		}
		if res.conn.ID() != "bridge1" {
			t.Errorf("ID() = %q, want bridge1", res.conn.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Get() never woke after Register")
	}
}

func TestManager_GetCancelled(t *testing.T) {
	m := NewManager()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Get(ctx, "bridge1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}

	// A later Register must not block on the abandoned waiter.
	registered := make(chan error, 1)
	go func() { registered <- m.Register(testConn("bridge1")) }()
	select {
	case err := <-registered:
		if err != nil {
			t.Errorf("Register() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Register() blocked after cancelled Get")
	}
}

func TestManager_Unregister(t *testing.T) {
	m := NewManager()

	if err := m.Register(testConn("bridge1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	m.Unregister("bridge1")
	if _, ok := m.Peek("bridge1"); ok {
		t.Error("Peek() hit after Unregister")
	}
	if err := m.Register(testConn("bridge1")); err != nil {
		t.Errorf("re-Register() error = %v", err)
	}
}
