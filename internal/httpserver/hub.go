package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// upgrader configures the WebSocket handshake.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client serializes writes; gorilla connections allow one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks WebSocket clients and fans summaries out to them.
type Hub struct {
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[*client]bool
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{logger: logger, clients: make(map[*client]bool)}
}

// Serve upgrades the connection, sends initial when set, and keeps the
// client registered until it disconnects. Clients are push-only; anything
// they send is discarded.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial *wsMessage) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}

	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			if err := c.write(data); err != nil {
				conn.Close()
				return
			}
		}
	}
	h.add(c)

	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug().Err(err).Msg("websocket read error")
				}
				return
			}
		}
	}()
}

// Broadcast sends msg to every connected client. Clients that fail the
// write are dropped.
func (h *Hub) Broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket broadcast marshal failed")
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.write(data); err != nil {
				h.logger.Debug().Err(err).Msg("websocket write failed")
				h.remove(c)
			}
		}()
	}
	wg.Wait()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a close frame to every client and forgets them.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for c := range clients {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		c.conn.Close()
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}
