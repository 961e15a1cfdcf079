package platform

import (
	"context"
	"sync"
	"time"

	"github.com/mwhitfield/leapgate/internal/accessory"
	"github.com/mwhitfield/leapgate/internal/bridge"
	"github.com/mwhitfield/leapgate/internal/devices"
	"github.com/mwhitfield/leapgate/internal/discovery"
	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
	"github.com/mwhitfield/leapgate/internal/leap"
)

// defaultReconcileDelay is how long a "device heard" notification is
// debounced before triggering another reconcile pass, giving the
// bridge time to finish pairing the new device.
const defaultReconcileDelay = 30 * time.Second

// connectTimeout bounds waiting for a bridge connection when a
// debounced reconcile fires or a restored accessory attaches.
const connectTimeout = 5 * time.Minute

// Dialer establishes an authenticated session to a bridge. Injectable
// so tests can run the platform against an in-memory session.
type Dialer func(ctx context.Context, secret bridge.Secret, host string, port int) (bridge.LeapClient, error)

// defaultDialer opens a real mutual-TLS LEAP session.
func defaultDialer(ctx context.Context, secret bridge.Secret, host string, port int) (bridge.LeapClient, error) {
	return leap.Dial(ctx, leap.Config{
		Host: host,
		Port: port,
		CA:   secret.CA,
		Cert: secret.Certificate,
		Key:  secret.PrivateKey,
	})
}

// Subscriber receives unsolicited bridge messages that no internal
// route claims.
type Subscriber func(bridgeID string, msg leap.Message)

// Deps carries the collaborators the platform orchestrates.
type Deps struct {
	Logger    *logging.Logger
	Secrets   *bridge.SecretStore
	Manager   *bridge.Manager
	Index     *accessory.Index
	Registry  *accessory.Registry
	Browser   discovery.Browser
	Dialer    Dialer
	Options   devices.Options
	Publisher devices.Publisher
	Recorder  devices.Recorder

	// ReconcileDelay overrides the deviceheard debounce; zero means
	// the default.
	ReconcileDelay time.Duration
}

// Platform is the orchestrator: it restores the persisted accessory
// set, discovers bridges, connects to the ones it holds credentials
// for, reconciles their inventories, and routes unsolicited protocol
// notifications.
type Platform struct {
	logger   *logging.Logger
	secrets  *bridge.SecretStore
	manager  *bridge.Manager
	index    *accessory.Index
	registry *accessory.Registry
	browser  discovery.Browser
	dial     Dialer
	options  devices.Options
	pub      devices.Publisher
	rec      devices.Recorder

	reconcileDelay time.Duration

	subMu       sync.Mutex
	subscribers []Subscriber

	pendingMu sync.Mutex
	pending   map[string]bool

	uncfgMu      sync.Mutex
	unconfigured map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New assembles a platform from its dependencies.
func New(deps Deps) *Platform {
	dial := deps.Dialer
	if dial == nil {
		dial = defaultDialer
	}
	delay := deps.ReconcileDelay
	if delay <= 0 {
		delay = defaultReconcileDelay
	}
	return &Platform{
		logger:         deps.Logger,
		secrets:        deps.Secrets,
		manager:        deps.Manager,
		index:          deps.Index,
		registry:       deps.Registry,
		browser:        deps.Browser,
		dial:           dial,
		options:        deps.Options,
		pub:            deps.Publisher,
		rec:            deps.Recorder,
		reconcileDelay: delay,
		pending:        make(map[string]bool),
		unconfigured:   make(map[string]bool),
	}
}

// Start restores the persisted accessory set and then begins bridge
// discovery. Restoration always completes before the first discovery
// event is processed, so reconciliation sees the full known set.
//
// With no credentials configured the platform starts degraded:
// restored accessories are indexed but discovery is skipped entirely.
func (p *Platform) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	if err := p.restoreAccessories(ctx); err != nil {
		return err
	}

	if p.secrets.Empty() {
		p.logger.Warn("no bridge credentials configured, discovery disabled")
		return nil
	}

	events := make(chan discovery.Event)
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		if err := p.browser.Browse(p.ctx, events); err != nil && p.ctx.Err() == nil {
			p.logger.Warn("bridge discovery failed", "error", err)
		}
	}()
	go func() {
		defer p.wg.Done()
		for {
			select {
			case event := <-events:
				p.handleDiscovered(event)
			case <-p.ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop cancels in-flight work and closes every bridge connection.
func (p *Platform) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	for _, id := range p.manager.IDs() {
		if conn, ok := p.manager.Peek(id); ok {
			conn.Close()
			p.manager.Unregister(id)
		}
	}
}

// Subscribe registers a sink for unsolicited bridge messages that are
// not consumed internally. Notifications that trigger reconciliation
// are not forwarded.
func (p *Platform) Subscribe(fn Subscriber) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// handleDiscovered reacts to one bridge sighting.
func (p *Platform) handleDiscovered(event discovery.Event) {
	if _, connected := p.manager.Peek(event.BridgeID); connected {
		p.logger.Debug("bridge already connected, ignoring sighting", "bridge_id", event.BridgeID)
		return
	}

	secret, ok := p.secrets.Lookup(event.BridgeID)
	if !ok {
		p.markUnconfigured(event.BridgeID)
		p.logger.Error("discovered bridge has no credentials, cannot connect",
			"bridge_id", event.BridgeID, "host", event.Host, "error", bridge.ErrNoCredentials)
		return
	}

	client, err := p.dial(p.ctx, secret, event.Host, event.Port)
	if err != nil {
		p.logger.Warn("failed to connect to bridge",
			"bridge_id", event.BridgeID, "host", event.Host, "error", err)
		return
	}

	conn := bridge.NewConnection(event.BridgeID, event.Host, client)
	if err := p.manager.Register(conn); err != nil {
		// Another discovery event won the race; keep the older session.
		client.Close()
		return
	}
	p.clearUnconfigured(event.BridgeID)

	client.OnUnsolicited(func(msg leap.Message) {
		p.routeUnsolicited(event.BridgeID, msg)
	})

	p.logger.Info("bridge connected", "bridge_id", event.BridgeID, "host", event.Host)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runReconcile(conn)
	}()

	// Drop the registration when the session dies so a later sighting
	// reconnects.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case <-client.Done():
			p.manager.Unregister(event.BridgeID)
			p.logger.Warn("bridge connection lost", "bridge_id", event.BridgeID)
		case <-p.ctx.Done():
		}
	}()
}

// markUnconfigured records a bridge seen on the network without
// credentials.
func (p *Platform) markUnconfigured(bridgeID string) {
	p.uncfgMu.Lock()
	defer p.uncfgMu.Unlock()
	p.unconfigured[bridgeID] = true
}

func (p *Platform) clearUnconfigured(bridgeID string) {
	p.uncfgMu.Lock()
	defer p.uncfgMu.Unlock()
	delete(p.unconfigured, bridgeID)
}

// Unconfigured returns the bridges seen on the network that the
// gateway holds no credentials for.
func (p *Platform) Unconfigured() []string {
	p.uncfgMu.Lock()
	defer p.uncfgMu.Unlock()

	out := make([]string, 0, len(p.unconfigured))
	for id := range p.unconfigured {
		out = append(out, id)
	}
	return out
}

// BridgeStatus describes one bridge for the API surface.
type BridgeStatus struct {
	ID        string `json:"id"`
	Addr      string `json:"addr,omitempty"`
	Connected bool   `json:"connected"`
}

// Bridges reports every bridge the platform knows about: connected
// ones, configured-but-unseen ones, and unconfigured sightings.
func (p *Platform) Bridges() []BridgeStatus {
	seen := make(map[string]bool)
	var out []BridgeStatus

	for _, id := range p.manager.IDs() {
		conn, ok := p.manager.Peek(id)
		if !ok {
			continue
		}
		seen[id] = true
		out = append(out, BridgeStatus{ID: id, Addr: conn.Addr(), Connected: true})
	}
	for _, id := range p.secrets.IDs() {
		if !seen[id] {
			seen[id] = true
			out = append(out, BridgeStatus{ID: id})
		}
	}
	for _, id := range p.Unconfigured() {
		if !seen[id] {
			out = append(out, BridgeStatus{ID: id})
		}
	}
	return out
}

// fanOut delivers an unclaimed notification to every subscriber.
func (p *Platform) fanOut(bridgeID string, msg leap.Message) {
	p.subMu.Lock()
	subs := make([]Subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.subMu.Unlock()

	for _, fn := range subs {
		fn(bridgeID, msg)
	}
}
