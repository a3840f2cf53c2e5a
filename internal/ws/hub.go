package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// client is one connected viewer. Only its write pump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub fans popup cards out to connected WebSocket clients
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{} // Protected by mu
	last    *types.PopupCard     // Protected by mu
	closed  bool                 // Protected by mu
	buffer  int
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHub creates a hub with a per-client send buffer
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		buffer:  buffer,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Publish broadcasts a card without blocking. Clients whose buffer is full
// are disconnected.
func (h *Hub) Publish(card types.PopupCard) {
	data, err := sonic.Marshal(types.WSMessage{Type: types.WSTypePopup, Popup: &card})
	if err != nil {
		h.logger.Error("failed to encode popup", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &card
	for c := range h.clients {
		select {
		case c.send <- data:
			h.recordMessage("out", types.WSTypePopup)
		default:
			h.logger.Warn("dropping slow websocket client", zap.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, h.buffer)}
	if !h.register(cl) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(cl)
	h.readPump(cl)
}

// register adds a client and queues the welcome message and current card
func (h *Hub) register(cl *client) bool {
	welcome, _ := sonic.Marshal(types.WSMessage{Type: types.WSTypeSystem, Message: "connected to marker stream"})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	h.clients[cl] = struct{}{}
	cl.send <- welcome
	if h.last != nil {
		if data, err := sonic.Marshal(types.WSMessage{Type: types.WSTypePopup, Popup: h.last}); err == nil {
			select {
			case cl.send <- data:
			default:
			}
		}
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("websocket client connected", zap.Int("clients", len(h.clients)))
	return true
}

// readPump consumes client messages until the connection fails
func (h *Hub) readPump(cl *client) {
	defer h.unregister(cl)

	cl.conn.SetReadLimit(maxMessageSize)
	for {
		var msg types.WSMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		h.recordMessage("in", msg.Type)

		switch msg.Type {
		case types.WSTypePing:
			h.reply(cl, types.WSMessage{Type: types.WSTypePong})
		default:
			h.reply(cl, types.WSMessage{Type: types.WSTypeError, Message: "unknown message type"})
		}
	}
}

// writePump drains the send queue; it owns all writes on the connection
func (h *Hub) writePump(cl *client) {
	defer cl.conn.Close()

	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.unregister(cl)
			return
		}
	}

	_ = cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *Hub) reply(cl *client, msg types.WSMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- data:
		h.recordMessage("out", msg.Type)
	default:
	}
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(cl)
}

// removeLocked drops a client (must hold lock)
func (h *Hub) removeLocked(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	cl.close()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		h.removeLocked(cl)
	}
}

func (h *Hub) recordMessage(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
