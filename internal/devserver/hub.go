package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/eventum-app/eventum/pkg/realtime"
)

// identifyTimeout bounds the wait for a client's identify frame.
const identifyTimeout = 10 * time.Second

type client struct {
	id   string
	uid  int64
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub holds push connections by user id.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}

	// onChange is told the connection count after every change.
	onChange func(n int)
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[int64]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// ServeHTTP upgrades the request, waits for the identify frame, and keeps
// the connection registered until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadDeadline(time.Now().Add(identifyTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	var hello realtime.Identify
	if err := json.Unmarshal(data, &hello); err != nil || hello.UID <= 0 {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "identify first"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	c := &client{id: uuid.NewString(), uid: hello.UID, conn: conn}
	h.add(c)
	logger := h.logger.With("conn", c.id, "uid", c.uid)
	logger.Debug("push client connected")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	conn.Close()
	logger.Debug("push client disconnected")
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.uid]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.uid] = set
	}
	set[c] = struct{}{}
	n := h.countLocked()
	h.mu.Unlock()
	h.changed(n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.uid]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.uid)
		}
	}
	n := h.countLocked()
	h.mu.Unlock()
	h.changed(n)
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) changed(n int) {
	if h.onChange != nil {
		h.onChange(n)
	}
}

// Push sends n to every connection of uid and returns how many received
// it.
func (h *Hub) Push(uid int64, n realtime.Notification) int {
	data, err := json.Marshal(n)
	if err != nil {
		return 0
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[uid]))
	for c := range h.clients[uid] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.logger.Debug("push failed", "conn", c.id, "error", err)
			c.conn.Close()
			continue
		}
		sent++
	}
	return sent
}

// Connected returns the number of open connections for uid.
func (h *Hub) Connected(uid int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[uid])
}

// Close closes every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.conn.Close()
	}
}
