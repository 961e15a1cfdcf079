package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grandcat/zeroconf"
)

// Defaults for browsing bridge announcements.
const (
	DefaultService = "_lutron._tcp"
	DefaultDomain  = "local."
)

// ErrBrowseFailed wraps mDNS resolver and browse failures.
var ErrBrowseFailed = errors.New("discovery: browse failed")

// Event is one bridge sighting on the local network.
type Event struct {
	// BridgeID is the lowercased bridge identity extracted from the
	// service instance name.
	BridgeID string

	// Host is the address to dial, preferring the announced IPv4
	// address over the hostname.
	Host string

	// Port is the announced service port.
	Port int
}

// Browser watches the network for bridge announcements and delivers
// them as events until the context is cancelled.
type Browser interface {
	Browse(ctx context.Context, events chan<- Event) error
}

// MDNSBrowser discovers bridges via multicast DNS service browsing.
type MDNSBrowser struct {
	service string
	domain  string
}

// NewMDNSBrowser returns a browser for the given service type and
// domain, falling back to the bridge defaults when either is empty.
func NewMDNSBrowser(service, domain string) *MDNSBrowser {
	if service == "" {
		service = DefaultService
	}
	if domain == "" {
		domain = DefaultDomain
	}
	return &MDNSBrowser{service: service, domain: domain}
}

// Browse streams bridge sightings into events until ctx is cancelled.
// Sightings whose instance name does not identify a bridge are dropped.
func (b *MDNSBrowser) Browse(ctx context.Context, events chan<- Event) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowseFailed, err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, b.service, b.domain, entries); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowseFailed, err)
	}

	return forward(ctx, entries, events)
}

// forward relays sightings from the resolver until ctx is cancelled.
// The resolver closes entries when it stops; a stream that ends while
// the context is still live means discovery died underneath us, and
// the caller needs to hear about it.
func forward(ctx context.Context, entries <-chan *zeroconf.ServiceEntry, events chan<- Event) error {
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: entry stream closed", ErrBrowseFailed)
			}
			event, converted := eventFromEntry(entry)
			if !converted {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// eventFromEntry converts an mDNS service entry into a bridge sighting.
// Bridge instance names look like "Lutron-01F2A3B4"; anything else on
// the service type is ignored.
func eventFromEntry(entry *zeroconf.ServiceEntry) (Event, bool) {
	if entry == nil {
		return Event{}, false
	}

	instance := strings.TrimSpace(entry.Instance)
	if !strings.HasPrefix(strings.ToLower(instance), "lutron-") {
		return Event{}, false
	}

	host := strings.TrimSuffix(entry.HostName, ".")
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	}
	if host == "" {
		return Event{}, false
	}

	return Event{
		BridgeID: strings.ToLower(instance),
		Host:     host,
		Port:     entry.Port,
	}, true
}
