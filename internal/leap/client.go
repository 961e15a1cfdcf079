package leap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPort is the LEAP TLS port on production bridges.
const DefaultPort = 8081

// defaultHandshakeTimeout bounds the TLS handshake when the caller's
// context carries no deadline.
const defaultHandshakeTimeout = 15 * time.Second

// Config holds everything needed to dial one bridge.
type Config struct {
	// Host is the bridge's network address (IP or hostname).
	Host string

	// Port is the LEAP port; zero means DefaultPort.
	Port int

	// CA is the PEM-encoded bridge certificate authority.
	CA []byte

	// Cert and Key are the PEM-encoded client certificate pair issued
	// during bridge association.
	Cert []byte
	Key  []byte
}

// Client is a LEAP protocol session with one bridge.
//
// LEAP multiplexes tagged request/response pairs and unsolicited
// notifications over a single JSON-over-TLS stream. The client correlates
// responses by ClientTag; messages without a matching tag are routed to
// subscription handlers by URL, and anything left over goes to the
// unsolicited callback.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	conn io.ReadWriteCloser

	writeMu sync.Mutex
	enc     *json.Encoder

	pendingMu sync.Mutex
	pending   map[string]chan Message

	handlersMu sync.RWMutex
	handlers   map[string]func(Message)

	unsolMu     sync.RWMutex
	unsolicited func(Message)

	tag atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Dial establishes a mutually authenticated TLS session with a bridge and
// starts the read loop.
//
// Bridge certificates are self-signed and carry no SANs, so hostname
// verification is disabled and the chain is verified manually against the
// bridge's CA instead.
//
// Parameters:
//   - ctx: Bounds the TCP connect and TLS handshake
//   - cfg: Bridge address and credential bundle
//
// Returns:
//   - *Client: Connected session ready for requests
//   - error: If the credentials are malformed or the connection fails
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	dialer := &net.Dialer{}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, addr, err)
	}

	tlsConn := tls.Client(raw, tlsCfg)

	hsCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, defaultHandshakeTimeout)
		defer cancel()
	}
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrHandshakeFailed, addr, err)
	}

	return newClient(tlsConn), nil
}

// buildTLSConfig assembles the mutual-TLS configuration from PEM material.
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	keyPair, err := tls.X509KeyPair(cfg.Cert, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: loading client key pair: %w", ErrBadCredentials, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(cfg.CA) {
		return nil, fmt.Errorf("%w: CA contains no parsable certificates", ErrBadCredentials)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{keyPair},
		MinVersion:   tls.VersionTLS12,
		// Bridge certs have no SANs; verify the chain manually below.
		InsecureSkipVerify:    true, // #nosec G402 -- replaced by VerifyPeerCertificate
		VerifyPeerCertificate: verifyAgainstPool(pool),
	}, nil
}

// verifyAgainstPool returns a VerifyPeerCertificate callback that checks
// the presented chain against the bridge CA, skipping hostname checks.
func verifyAgainstPool(pool *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("%w: no peer certificate presented", ErrHandshakeFailed)
		}

		leaf, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("%w: parsing peer certificate: %w", ErrHandshakeFailed, err)
		}

		intermediates := x509.NewCertPool()
		for _, raw := range rawCerts[1:] {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("%w: parsing intermediate certificate: %w", ErrHandshakeFailed, err)
			}
			intermediates.AddCert(cert)
		}

		_, err = leaf.Verify(x509.VerifyOptions{
			Roots:         pool,
			Intermediates: intermediates,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
		}
		return nil
	}
}

// newClient wraps an established connection and starts the read loop.
func newClient(conn io.ReadWriteCloser) *Client {
	c := &Client{
		conn:     conn,
		enc:      json.NewEncoder(conn),
		pending:  make(map[string]chan Message),
		handlers: make(map[string]func(Message)),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Request sends a tagged communique and waits for the matching response.
//
// A response with a non-2xx status code is returned alongside ErrBadStatus
// so callers can still inspect the body.
//
// Parameters:
//   - ctx: Bounds the wait for the response
//   - ct: The communique type (ReadRequest, SubscribeRequest, ...)
//   - url: The LEAP resource URL
//   - body: Optional request body, marshalled to JSON
//
// Returns:
//   - Message: The tagged response
//   - error: ctx error, ErrClosed, or ErrBadStatus
func (c *Client) Request(ctx context.Context, ct CommuniqueType, url string, body any) (Message, error) {
	tag := strconv.FormatUint(c.tag.Add(1), 10)

	respCh := make(chan Message, 1)
	c.pendingMu.Lock()
	c.pending[tag] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, tag)
		c.pendingMu.Unlock()
	}()

	msg := Message{
		CommuniqueType: ct,
		Header: Header{
			URL:       url,
			ClientTag: tag,
		},
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Message{}, fmt.Errorf("marshalling request body: %w", err)
		}
		msg.Body = raw
	}

	if err := c.send(msg); err != nil {
		return Message{}, err
	}

	select {
	case resp := <-respCh:
		if !resp.Header.StatusCode.OK() {
			return resp, fmt.Errorf("%w: %s %s returned %q", ErrBadStatus, ct, url, resp.Header.StatusCode)
		}
		return resp, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-c.done:
		return Message{}, ErrClosed
	}
}

// send encodes one message onto the wire.
func (c *Client) send(msg Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.enc.Encode(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// Devices fetches the bridge's full device inventory.
//
// Parameters:
//   - ctx: Bounds the request
//
// Returns:
//   - []DeviceRecord: All devices the bridge owns, in bridge order
//   - error: If the request or body decode fails
func (c *Client) Devices(ctx context.Context) ([]DeviceRecord, error) {
	resp, err := c.Request(ctx, CommuniqueReadRequest, DeviceListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching device inventory: %w", err)
	}

	var defs MultipleDeviceDefinition
	if err := resp.DecodeBody(&defs); err != nil {
		return nil, fmt.Errorf("decoding device inventory: %w", err)
	}
	return defs.Devices, nil
}

// Subscribe issues a SubscribeRequest for a URL and routes subsequent
// untagged messages for that URL to the handler.
//
// Handlers run on the read loop goroutine and must not block.
//
// Parameters:
//   - ctx: Bounds the subscribe request
//   - url: The LEAP resource URL to subscribe to
//   - handler: Callback for status messages on that URL
//
// Returns:
//   - Message: The initial subscribe response (often carries current state)
//   - error: If the subscribe request fails
func (c *Client) Subscribe(ctx context.Context, url string, handler func(Message)) (Message, error) {
	c.handlersMu.Lock()
	c.handlers[url] = handler
	c.handlersMu.Unlock()

	resp, err := c.Request(ctx, CommuniqueSubscribeRequest, url, nil)
	if err != nil {
		c.handlersMu.Lock()
		delete(c.handlers, url)
		c.handlersMu.Unlock()
		return Message{}, err
	}
	return resp, nil
}

// OnUnsolicited sets the callback for messages that match no pending tag
// and no subscription handler. Only one callback is supported; setting it
// replaces the previous one.
func (c *Client) OnUnsolicited(fn func(Message)) {
	c.unsolMu.Lock()
	c.unsolicited = fn
	c.unsolMu.Unlock()
}

// Ping checks bridge liveness over the established session.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Request(ctx, CommuniqueReadRequest, PingURL, nil)
	return err
}

// Close tears down the session. Outstanding requests fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Done returns a channel closed when the session ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// readLoop decodes messages off the wire and dispatches them until the
// connection fails or the client is closed.
func (c *Client) readLoop() {
	dec := json.NewDecoder(c.conn)
	for {
		var msg Message
		if err := dec.Decode(&msg); err != nil {
			c.Close()
			return
		}
		c.dispatch(msg)
	}
}

// dispatch routes one inbound message: tagged responses to their waiter,
// subscription URLs to their handler, everything else to the unsolicited
// callback.
func (c *Client) dispatch(msg Message) {
	if tag := msg.Header.ClientTag; tag != "" {
		c.pendingMu.Lock()
		ch, ok := c.pending[tag]
		c.pendingMu.Unlock()
		if ok {
			ch <- msg
			return
		}
	}

	c.handlersMu.RLock()
	handler, ok := c.handlers[msg.Header.URL]
	c.handlersMu.RUnlock()
	if ok {
		handler(msg)
		return
	}

	c.unsolMu.RLock()
	unsolicited := c.unsolicited
	c.unsolMu.RUnlock()
	if unsolicited != nil {
		unsolicited(msg)
	}
}
