package bridge

import (
	"context"

	"github.com/mwhitfield/leapgate/internal/leap"
)

// LeapClient is the subset of the LEAP client used by the rest of the
// gateway. It exists so connection consumers can be tested without a
// live TLS session.
type LeapClient interface {
	Request(ctx context.Context, ct leap.CommuniqueType, url string, body any) (leap.Message, error)
	Devices(ctx context.Context) ([]leap.DeviceRecord, error)
	Subscribe(ctx context.Context, url string, handler func(leap.Message)) (leap.Message, error)
	OnUnsolicited(fn func(leap.Message))
	Ping(ctx context.Context) error
	Close() error
	Done() <-chan struct{}
}

// Connection binds a live LEAP session to the bridge it belongs to.
type Connection struct {
	id     string
	addr   string
	client LeapClient
}

// NewConnection wraps an established LEAP session.
func NewConnection(id, addr string, client LeapClient) *Connection {
	return &Connection{id: id, addr: addr, client: client}
}

// ID returns the bridge ID this connection belongs to.
func (c *Connection) ID() string { return c.id }

// Addr returns the network address the session was dialled to.
func (c *Connection) Addr() string { return c.addr }

// Client returns the underlying LEAP session.
func (c *Connection) Client() LeapClient { return c.client }

// Close tears down the underlying session.
func (c *Connection) Close() error { return c.client.Close() }
