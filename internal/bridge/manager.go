package bridge

import (
	"context"
	"strings"
	"sync"
)

// Manager tracks live bridge connections by bridge ID.
//
// Callers that need a connection before discovery has produced one use
// Get, which blocks until the connection for that bridge is registered
// or the context is cancelled. Restored accessories rely on this to
// attach their handlers as soon as their bridge comes online.
type Manager struct {
	mu      sync.Mutex
	conns   map[string]*Connection
	waiters map[string][]chan *Connection
}

// NewManager returns an empty connection manager.
func NewManager() *Manager {
	return &Manager{
		conns:   make(map[string]*Connection),
		waiters: make(map[string][]chan *Connection),
	}
}

// Register records a live connection and wakes any Get callers blocked
// on its bridge ID. Returns ErrAlreadyRegistered if a connection for
// the ID is already present.
func (m *Manager) Register(conn *Connection) error {
	id := strings.ToLower(conn.ID())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.conns[id]; exists {
		return ErrAlreadyRegistered
	}
	m.conns[id] = conn

	for _, waiter := range m.waiters[id] {
		waiter <- conn
	}
	delete(m.waiters, id)

	return nil
}

// Unregister drops the connection for a bridge ID, if present. Blocked
// Get callers keep waiting for a future registration.
func (m *Manager) Unregister(bridgeID string) {
	id := strings.ToLower(bridgeID)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

// Peek returns the connection for a bridge ID without blocking.
func (m *Manager) Peek(bridgeID string) (*Connection, bool) {
	id := strings.ToLower(bridgeID)

	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.conns[id]
	return conn, ok
}

// Get returns the connection for a bridge ID, blocking until one is
// registered or the context is cancelled.
func (m *Manager) Get(ctx context.Context, bridgeID string) (*Connection, error) {
	id := strings.ToLower(bridgeID)

	m.mu.Lock()
	if conn, ok := m.conns[id]; ok {
		m.mu.Unlock()
		return conn, nil
	}
	waiter := make(chan *Connection, 1)
	m.waiters[id] = append(m.waiters[id], waiter)
	m.mu.Unlock()

	select {
	case conn := <-waiter:
		return conn, nil
	case <-ctx.Done():
		m.dropWaiter(id, waiter)
		return nil, ctx.Err()
	}
}

// dropWaiter removes a cancelled waiter so Register does not block a
// send into an abandoned channel. The waiter channel is buffered, so a
// racing Register that already delivered is harmless.
func (m *Manager) dropWaiter(id string, waiter chan *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	waiters := m.waiters[id]
	for i, w := range waiters {
		if w == waiter {
			m.waiters[id] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(m.waiters[id]) == 0 {
		delete(m.waiters, id)
	}
}

// IDs returns the bridge IDs with live connections.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	return ids
}
