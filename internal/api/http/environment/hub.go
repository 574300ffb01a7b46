package environment

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	domain "github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/logger"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound frames. Clients are not expected to talk.
	maxMessageSize = 512
	// sendBufferSize is the per-client queue length.
	sendBufferSize = 16
)

// ErrHubClosed is returned by Save after Close.
var ErrHubClosed = errors.New("stream hub closed")

// streamClient is one websocket subscriber.
type streamClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub fans persisted documents out to websocket subscribers.
// It satisfies the persistence Saver contract so it can be used as a mirror.
type Hub struct {
	base     context.Context
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	last    []byte
	closed  bool
}

// NewHub creates an empty hub. base carries the logger.
func NewHub(base context.Context) *Hub {
	return &Hub{
		base: logger.WithName(base, "stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// ServeHTTP upgrades the request and subscribes the connection.
// The latest document, if any, is sent right away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		writeText(w, http.StatusServiceUnavailable, ErrHubClosed.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(h.base, "Websocket upgrade failed", "error", err)
		return
	}

	c := &streamClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   uuid.NewString(),
	}

	if !h.register(c) {
		_ = conn.Close()
		return
	}

	logger.InfoKV(h.base, "Stream client connected", "client_id", c.id, "remote_addr", r.RemoteAddr)

	go c.writePump()

	c.readPump()
}

// Save broadcasts the document to every subscriber without blocking.
// Subscribers whose queue is full are dropped.
func (h *Hub) Save(_ context.Context, doc *domain.Document) error {
	payload, err := doc.Marshal()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	h.last = payload

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.WarnKV(h.base, "Dropping slow stream client", "client_id", c.id)
			h.dropLocked(c)
		}
	}

	return nil
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones. It is idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true

	for c := range h.clients {
		h.dropLocked(c)
	}

	h.last = nil

	return nil
}

func (h *Hub) register(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}

	if h.last != nil {
		c.send <- h.last
	}

	return true
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		h.dropLocked(c)
		logger.InfoKV(h.base, "Stream client disconnected", "client_id", c.id)
	}
}

// dropLocked must be called with h.mu held.
func (h *Hub) dropLocked(c *streamClient) {
	delete(h.clients, c)
	close(c.send)
}

// readPump discards inbound frames and detects disconnects.
func (c *streamClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.DebugKV(c.hub.base, "Stream read failed", "client_id", c.id, "error", err)
			}

			return
		}
	}
}

// writePump sends queued documents and keepalive pings.
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
