package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"medspa/internal/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Event is pushed to every connected POS screen when a payment changes state.
type Event struct {
	Type          string    `json:"type"`
	PaymentID     int64     `json:"payment_id"`
	ClientID      int64     `json:"client_id"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	Method        string    `json:"payment_method"`
	Total         string    `json:"total"`
	At            time.Time `json:"at"`
}

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Hub fans payment events out to websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub accepts upgrades from the given origins; an empty list or "*" allows any.
func NewHub(allowedOrigins []string) *Hub {
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed[strings.ToLower(o)] = true
		}
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 || allowed["*"] {
					return true
				}
				return allowed[strings.ToLower(origin)]
			},
		},
		conns: make(map[*conn]struct{}),
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// ServeWS upgrades the request and keeps the connection until the peer leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &conn{ws: ws}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go h.pingLoop(c)
	h.readLoop(c)
	return nil
}

func (h *Hub) pingLoop(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if !h.alive(c) {
			return
		}
		h.write(c, func(ws *websocket.Conn) error {
			return ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		})
	}
}

func (h *Hub) readLoop(c *conn) {
	defer h.drop(c)

	c.ws.SetReadLimit(4 << 10)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		mt, msg, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		if mt == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			h.write(c, func(ws *websocket.Conn) error {
				return ws.WriteMessage(websocket.TextMessage, []byte("pong"))
			})
		}
	}
}

func (h *Hub) alive(c *conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[c]
	return ok
}

func (h *Hub) drop(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	_ = c.ws.Close()
}

func (h *Hub) write(c *conn, fn func(*websocket.Conn) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := fn(c.ws); err != nil {
		utils.LogError("", "realtime", "write", err)
		go h.drop(c)
	}
}

// Publish broadcasts e to all subscribers. It never blocks on a slow peer for
// longer than writeWait.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		utils.LogError("", "realtime", "marshal", err)
		return
	}
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.write(c, func(ws *websocket.Conn) error {
			return ws.WriteMessage(websocket.TextMessage, data)
		})
	}
}
