package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"studio-ai/internal/studio"
)

const (
	clientSendBuffer = 8
	writeWait        = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	sent    bool
	version uint64
}

// hub pushes a state view to every connected browser after each session
// change. A client never receives a version older than one it already has.
type hub struct {
	session *studio.Session
	logger  *slog.Logger
	loc     *time.Location

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(session *studio.Session, logger *slog.Logger, loc *time.Location) *hub {
	return &hub{
		session: session,
		logger:  logger,
		loc:     loc,
		clients: make(map[*client]struct{}),
	}
}

// run subscribes to the session. The returned func stops the pushes.
func (h *hub) run() func() {
	return h.session.Subscribe(h.broadcast)
}

func (h *hub) broadcast(st studio.State) {
	msg, err := json.Marshal(newStateView(st, h.loc))
	if err != nil {
		h.logger.Error("encode state", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.deliverLocked(c, st.Version, msg)
	}
}

func (h *hub) deliverLocked(c *client, version uint64, msg []byte) {
	if c.sent && version <= c.version {
		return
	}
	select {
	case c.send <- msg:
		c.sent = true
		c.version = version
	default:
		h.logger.Warn("websocket client too slow, dropping")
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) register(c *client) {
	st := h.session.Snapshot()
	msg, err := json.Marshal(newStateView(st, h.loc))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if err == nil {
		h.deliverLocked(c, st.Version, msg)
	}
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register(c)
	h.logger.Debug("websocket connected", "clients", h.clientCount())

	go c.writePump(h.logger)
	c.readPump(h)
}

// readPump only watches for the connection closing; the browser sends
// actions over the JSON API.
func (c *client) readPump(h *hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.logger.Debug("websocket disconnected", "clients", h.clientCount())
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", "err", err)
			}
			return
		}
	}
}

func (c *client) writePump(logger *slog.Logger) {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Debug("websocket write failed", "err", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
