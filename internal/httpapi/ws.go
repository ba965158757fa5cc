package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"parkd/pkg/types"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients may sit on another origin; CORS policy is handled
	// at the router level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// statsUpdate is the payload pushed to websocket clients after each
// successful analysis. The annotated image is deliberately left out.
type statsUpdate struct {
	Stats     types.Stats `json:"stats"`
	Source    string      `json:"source"`
	UpdatedAt string      `json:"updated_at"`
}

// wsClient is one connected dashboard. gorilla/websocket allows a single
// concurrent writer per connection, and broadcasts come straight from the
// request handler goroutines, so every write holds mu.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(update statsUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(update)
}

// statsHub fans each new occupancy reading out to connected dashboards.
type statsHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newStatsHub() *statsHub {
	return &statsHub{clients: make(map[*wsClient]struct{})}
}

func (h *statsHub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logEvent().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	logDebug().Str("remote", conn.RemoteAddr().String()).Msg("stats client connected")

	// Drain reads so close frames are processed; drop the client on error.
	go func() {
		defer h.drop(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *statsHub) drop(client *wsClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	_ = client.conn.Close()
}

func (h *statsHub) broadcastResult(resp types.AnalysisResponse) {
	update := statsUpdate{Stats: resp.Stats, Source: resp.Source, UpdatedAt: resp.UpdatedAt}
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(update); err != nil {
			h.drop(c)
		}
	}
}
