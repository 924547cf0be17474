// Package websocket streams simulation snapshots to browser map clients.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/kilianp07/roadsim/core/fleet"
	"github.com/kilianp07/roadsim/core/logger"
	"github.com/kilianp07/roadsim/infra/render"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Config configures the WebSocket feed.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Path       string `json:"path"`
	SendBuffer int    `json:"send_buffer"`
}

// SetDefaults fills the listen address, path and per-client buffer.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8081"
	}
	if c.Path == "" {
		c.Path = "/ws"
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 16
	}
}

// Validate checks the feed settings.
func (c Config) Validate() error {
	if c.Enabled && c.Address == "" {
		return fmt.Errorf("websocket: address is required")
	}
	return nil
}

type client struct {
	conn *ws.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub fans snapshots out to every connected client. A client that cannot
// keep up loses messages instead of slowing the simulation down. New clients
// receive the latest routes and vehicles on connect.
type Hub struct {
	log      logger.Logger
	upgrader ws.Upgrader
	buffer   int
	now      func() time.Time

	mu       sync.Mutex
	clients  map[*client]struct{}
	vehicles []byte
	routes   []byte
}

// NewHub creates a Hub with the given per-client send buffer.
func NewHub(log logger.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		log:      logger.OrNop(log),
		upgrader: ws.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: func(*http.Request) bool { return true }},
		buffer:   buffer,
		now:      time.Now,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.buffer), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	for _, last := range [][]byte{h.routes, h.vehicles} {
		if last == nil {
			continue
		}
		select {
		case c.send <- last:
		default:
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Infof("client connected from %s (%d clients)", r.RemoteAddr, n)

	go h.writer(c)
	go h.reader(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	if ok {
		h.log.Infof("client disconnected")
	}
}

// reader discards client messages and keeps the read deadline alive on pongs.
func (h *Hub) reader(c *client) {
	defer h.remove(c)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writer(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(ws.TextMessage, msg); err != nil {
				h.log.Warnf("write error: %v", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Broadcast queues payload for every client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(payload)
}

func (h *Hub) broadcastLocked(payload []byte) {
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Debugf("client buffer full, dropping message")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SetVehicles broadcasts the vehicle FeatureCollection.
func (h *Hub) SetVehicles(s fleet.Snapshot) error {
	payload, err := render.EncodeVehicles(s)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.vehicles = payload
	h.broadcastLocked(payload)
	h.mu.Unlock()
	return nil
}

// SetRoutes broadcasts the route FeatureCollection.
func (h *Hub) SetRoutes(routes []fleet.RouteView) error {
	payload, err := render.EncodeRoutes(routes, h.now())
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.routes = payload
	h.broadcastLocked(payload)
	h.mu.Unlock()
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// Serve exposes the hub on addr under path until ctx is canceled.
func Serve(ctx context.Context, addr, path string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			h.log.Errorf("websocket server shutdown: %v", err)
		}
		cancel()
	}()
	h.log.Infof("serving websocket feed on %s%s", addr, path)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
