// Package hub tracks connected chat identities and fans broadcasts out
// to them. Delivery is best effort: a dead connection never blocks or
// aborts delivery to the rest.
package hub

import (
	"sync"

	"privacy-chat/internal/models"
	"privacy-chat/internal/visibility"

	"go.uber.org/zap"
)

// Conn is the transport handle the hub writes to. gorilla/websocket
// connections satisfy it, as do test fakes.
type Conn interface {
	WriteJSON(v any) error
}

type connection struct {
	conn     Conn
	username string // empty until the connection registers

	// Serializes writes: websocket connections allow at most one
	// concurrent writer, and broadcasts run from handler goroutines
	// that race each other.
	writeMu sync.Mutex
}

func (c *connection) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub is the session/broadcast coordinator. Connections move from
// anonymous to registered on the first register event and are removed
// on disconnect; re-registration just overwrites the username.
type Hub struct {
	mu     sync.Mutex
	conns  []*connection
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger}
}

// Connect admits a new anonymous connection.
func (h *Hub) Connect(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns = append(h.conns, &connection{conn: c})
}

// Register attaches a username to a connection and announces the new
// roster to everyone.
func (h *Hub) Register(c Conn, username string) {
	h.mu.Lock()
	for _, conn := range h.conns {
		if conn.conn == c {
			conn.username = username
			break
		}
	}
	h.mu.Unlock()
	h.BroadcastUserList()
}

// Disconnect removes a connection and announces the new roster.
func (h *Hub) Disconnect(c Conn) {
	h.mu.Lock()
	kept := h.conns[:0]
	for _, conn := range h.conns {
		if conn.conn != c {
			kept = append(kept, conn)
		}
	}
	h.conns = kept
	h.mu.Unlock()
	h.BroadcastUserList()
}

// Usernames returns the registered usernames in connection order.
func (h *Hub) Usernames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := make([]string, 0, len(h.conns))
	for _, conn := range h.conns {
		if conn.username != "" {
			users = append(users, conn.username)
		}
	}
	return users
}

// Send delivers one payload to a single connection, serialized with
// the broadcast writers.
func (h *Hub) Send(c Conn, payload models.Envelope) error {
	h.mu.Lock()
	var target *connection
	for _, conn := range h.conns {
		if conn.conn == c {
			target = conn
			break
		}
	}
	h.mu.Unlock()
	if target == nil {
		// Untracked connection, nothing else writes to it.
		return c.WriteJSON(payload)
	}
	return target.write(payload)
}

// BroadcastPersonalized delivers a per-recipient copy of the message.
// Every recipient receives the same payload; ineligible viewers of a
// private message only see its status overwritten to invalid. Failed
// deliveries are logged and skipped.
func (h *Hub) BroadcastPersonalized(envelopeType string, msg *models.Message) {
	h.mu.Lock()
	recipients := make([]*connection, len(h.conns))
	copy(recipients, h.conns)
	h.mu.Unlock()

	for _, conn := range recipients {
		payload := models.Envelope{
			Type: envelopeType,
			Data: visibility.Annotate(msg, conn.username),
		}
		if err := conn.write(payload); err != nil {
			h.logger.Debug("Failed to deliver broadcast", zap.String("username", conn.username), zap.Error(err))
		}
	}
}

// BroadcastUserList pushes the current roster to every connection,
// registered or not.
func (h *Hub) BroadcastUserList() {
	users := h.Usernames()

	h.mu.Lock()
	recipients := make([]*connection, len(h.conns))
	copy(recipients, h.conns)
	h.mu.Unlock()

	payload := models.Envelope{Type: models.EnvelopeUserList, Data: users}
	for _, conn := range recipients {
		if err := conn.write(payload); err != nil {
			h.logger.Debug("Failed to deliver user list", zap.String("username", conn.username), zap.Error(err))
		}
	}
}
