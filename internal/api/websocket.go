package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mwhitfield/leapgate/internal/infrastructure/logging"
)

// sendBufferSize is the per-client outbound queue; a client that falls
// this far behind is disconnected.
const sendBufferSize = 64

// Hub fans gateway events out to connected WebSocket clients.
type Hub struct {
	logger *logging.Logger

	mu      sync.Mutex
	clients map[*wsClient]bool
}

// NewHub returns an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// Broadcast delivers an event to every connected client. Events are
// JSON-encoded once; slow clients are dropped rather than blocked on.
func (h *Hub) Broadcast(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode websocket event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.remove(client)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.remove(client)
	}
}

func (h *Hub) add(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *wsClient) {
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(client)
}

// wsClient is one connected event stream consumer.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	pingInterval time.Duration
	pongTimeout  time.Duration
	maxMessage   int64
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware ahead of the
	// upgrade.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWS upgrades a request into an event stream connection.
func serveWS(deps Deps) http.HandlerFunc {
	pingInterval := time.Duration(deps.WebSocket.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	pongTimeout := time.Duration(deps.WebSocket.PongTimeout) * time.Second
	if pongTimeout <= 0 {
		pongTimeout = 10 * time.Second
	}
	maxMessage := int64(deps.WebSocket.MaxMessageSize)
	if maxMessage <= 0 {
		maxMessage = 8192
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			deps.Logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := &wsClient{
			hub:          deps.Hub,
			conn:         conn,
			send:         make(chan []byte, sendBufferSize),
			pingInterval: pingInterval,
			pongTimeout:  pongTimeout,
			maxMessage:   maxMessage,
		}
		deps.Hub.add(client)

		go client.writePump()
		go client.readPump()
	}
}

// readPump consumes (and discards) client frames to keep pong handling
// alive. The stream is one-way; clients have nothing to say.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessage)
	deadline := c.pingInterval + c.pongTimeout
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes queued events and periodic pings to the client.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BridgeEvent is the WebSocket shape for a forwarded bridge
// notification.
type BridgeEvent struct {
	Type     string          `json:"type"`
	BridgeID string          `json:"bridge_id"`
	URL      string          `json:"url"`
	Body     json.RawMessage `json:"body,omitempty"`
}
