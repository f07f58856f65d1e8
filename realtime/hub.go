package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

type client struct {
	conn *websocket.Conn
	role string
	send chan []byte
}

// Hub keeps the connected display clients (staff, admin) and broadcasts
// table and move updates to them. Each client has its own writer, so a
// stalled display never holds up a broadcast.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
	log     logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log,
	}
}

// Register adds a connection with its role and starts its writer.
func (h *Hub) Register(conn *websocket.Conn, role string) {
	c := &client{conn: conn, role: role, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

// Unregister drops a connection. Its writer closes the socket.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(conn)
}

func (h *Hub) remove(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast queues the message for every client. A client whose queue is
// full is dropped.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data, OccurredAt: time.Now()})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("failed to marshal realtime message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.WithFields(logrus.Fields{"role": c.role, "event": event}).Warn("realtime client too slow, dropping")
			h.remove(conn)
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.WithError(err).WithField("role", c.role).Warn("dropping realtime client")
			h.Unregister(c.conn)
			return
		}
	}
}
