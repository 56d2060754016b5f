package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hostboard/hostboard/internal/alerts"
	"github.com/hostboard/hostboard/internal/api"
	"github.com/hostboard/hostboard/internal/store"
	"github.com/hostboard/hostboard/internal/sysinfo"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every sampling tick.
type Message struct {
	Event string                  `json:"event"`
	Data  api.SystemStatsResponse `json:"data"`
}

// Hub manages WebSocket client connections. On every tick it samples the
// metrics provider, records the sample, runs alert evaluation, and pushes the
// fresh stats to all connected clients.
type Hub struct {
	sampler  *alerts.Sampler
	store    *store.Store
	engine   *alerts.Engine
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub sampling from p every interval, feeding st and engine.
func New(p sysinfo.Provider, st *store.Store, engine *alerts.Engine, interval time.Duration) *Hub {
	return &Hub{
		sampler:  alerts.NewSampler(p),
		store:    st,
		engine:   engine,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the sampling and broadcast loop. Run blocks until ctx is
// cancelled, then closes all active connections. Sampling happens even with
// zero clients connected so the history store and alert engine keep running
// between page loads.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.tick(ctx)
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends the most recent recorded sample immediately on connect, then the
// client receives broadcasts from the ticker loop. Blocks until the
// connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	// Send the latest sample immediately so the UI has data right away.
	if e, ok := h.store.Latest(); ok {
		if data, err := marshalMessage(e.Stats); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// tick performs one sampling pass and broadcasts the result. A provider
// failure skips the tick; connected clients simply keep their last reading.
func (h *Hub) tick(ctx context.Context) {
	snap, err := h.sampler.Sample(ctx)
	if err != nil {
		slog.Warn("ws: sampling failed, skipping broadcast", "err", err)
		return
	}

	h.store.Record(snap.Stats)
	h.engine.Evaluate(snap)

	data, err := marshalMessage(snap.Stats)
	if err != nil {
		return
	}
	h.broadcast(data)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			// Client's outgoing buffer is full; disconnect it.
			h.unregister(c)
		}
	}
}

func marshalMessage(st *sysinfo.SystemStats) ([]byte, error) {
	msg := Message{
		Event: "stats",
		Data:  api.BuildSystemStats(st),
	}
	return json.Marshal(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
