package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestEventFromEntry(t *testing.T) {
	tests := []struct {
		name   string
		entry  *zeroconf.ServiceEntry
		want   Event
		wantOK bool
	}{
		{
			name: "bridge with IPv4 address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Lutron-01F2A3B4"},
				HostName:      "lutron-01f2a3b4.local.",
				Port:          8081,
				AddrIPv4:      []net.IP{net.ParseIP("192.0.2.10")},
			},
			want:   Event{BridgeID: "lutron-01f2a3b4", Host: "192.0.2.10", Port: 8081},
			wantOK: true,
		},
		{
			name: "bridge without address falls back to hostname",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Lutron-AA11BB22"},
				HostName:      "lutron-aa11bb22.local.",
				Port:          8081,
			},
			want:   Event{BridgeID: "lutron-aa11bb22", Host: "lutron-aa11bb22.local", Port: 8081},
			wantOK: true,
		},
		{
			name: "non-bridge instance ignored",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "SomePrinter"},
				HostName:      "printer.local.",
				Port:          631,
			},
			wantOK: false,
		},
		{
			name: "no usable address ignored",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Lutron-DEAD"},
			},
			wantOK: false,
		},
		{
			name:   "nil entry ignored",
			entry:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := eventFromEntry(tt.entry)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("event = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestForward_RelaysBridgeSightings(t *testing.T) {
	entries := make(chan *zeroconf.ServiceEntry, 1)
	events := make(chan Event, 1)
	entries <- &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "Lutron-01F2A3B4"},
		Port:          8081,
		AddrIPv4:      []net.IP{net.ParseIP("192.0.2.10")},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- forward(ctx, entries, events) }()

	select {
	case got := <-events:
		if got.BridgeID != "lutron-01f2a3b4" {
			t.Errorf("BridgeID = %q, want lutron-01f2a3b4", got.BridgeID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sighting not relayed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("forward() error = %v after cancel, want nil", err)
	}
}

func TestForward_ReportsDeadEntryStream(t *testing.T) {
	entries := make(chan *zeroconf.ServiceEntry)
	close(entries)

	err := forward(context.Background(), entries, make(chan Event))
	if !errors.Is(err, ErrBrowseFailed) {
		t.Errorf("forward() error = %v, want ErrBrowseFailed", err)
	}
}

func TestForward_ClosedStreamAfterCancelIsClean(t *testing.T) {
	entries := make(chan *zeroconf.ServiceEntry)
	close(entries)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := forward(ctx, entries, make(chan Event)); err != nil {
		t.Errorf("forward() error = %v, want nil for cancelled context", err)
	}
}

func TestNewMDNSBrowser_Defaults(t *testing.T) {
	b := NewMDNSBrowser("", "")
	if b.service != DefaultService {
		t.Errorf("service = %q, want %q", b.service, DefaultService)
	}
	if b.domain != DefaultDomain {
		t.Errorf("domain = %q, want %q", b.domain, DefaultDomain)
	}
}
