// Package events pushes realtime notifications to connected users over
// websockets. Events published on one instance reach clients connected to
// any instance through a redis pub/sub channel.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kingsloob1/snipfair-app-sub000/internal/metrics"
)

// Channel is the redis pub/sub channel shared by all instances
const Channel = "events"

// Event types
const (
	AppointmentUpdated = "appointment.updated"
	MessageCreated     = "message.created"
	WalletUpdated      = "wallet.updated"
	DisputeUpdated     = "dispute.updated"
)

const (
	writeWait  = 10 * time.Second    // Time allowed to write a frame
	pongWait   = 60 * time.Second    // Time allowed between pongs
	pingPeriod = (pongWait * 9) / 10 // Pings go out before the pong deadline
	sendBuffer = 32                  // Queued events per client before it counts as slow
)

// Event is what clients receive
type Event struct {
	Type string `json:"type"` // One of the event types above
	Data any    `json:"data"` // The changed record
}

// envelope carries an event between instances
type envelope struct {
	Origin  string          `json:"origin"`   // Publishing instance
	UserIDs []uint          `json:"user_ids"` // Recipients
	Payload json.RawMessage `json:"payload"`  // Encoded Event
}

// Hub tracks websocket clients per user
type Hub struct {
	mu      sync.RWMutex                  // Guards clients
	clients map[uint]map[*client]struct{} // Open connections per user
	rdb     *redis.Client                 // Pub/sub between instances, nil when alone
	origin  string                        // This instance's id, to skip our own messages
}

type client struct {
	userID uint            // Authenticated owner
	conn   *websocket.Conn // Underlying connection
	send   chan []byte     // Outbound frames, closed on unregister
}

// NewHub creates a hub. rdb may be nil for a single instance.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		rdb:     rdb,
		origin:  uuid.NewString(),
	}
}

// Publish delivers evt to every client of the given users
func (h *Hub) Publish(userIDs []uint, evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		logrus.WithError(err).WithField("type", evt.Type).Error("Failed to encode event")
		return
	}
	h.deliver(userIDs, payload) // Local clients first
	if h.rdb == nil {
		return
	}
	// Then every other instance
	msg, _ := json.Marshal(envelope{Origin: h.origin, UserIDs: userIDs, Payload: payload})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rdb.Publish(ctx, Channel, msg).Err(); err != nil {
		logrus.WithError(err).WithField("type", evt.Type).Warn("Failed to fan out event")
	}
}

// Run relays events published by other instances until ctx is done
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}
	sub := h.rdb.Subscribe(ctx, Channel) // Closed when Run returns
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).Warn("Dropping malformed event")
				continue
			}
			if env.Origin == h.origin {
				continue // Already delivered locally
			}
			h.deliver(env.UserIDs, env.Payload)
		}
	}
}

// ClientCount returns how many connections userID has open
func (h *Hub) ClientCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// deliver queues payload for every local client of userIDs. Clients whose
// buffer is full are dropped rather than blocking the publisher.
func (h *Hub) deliver(userIDs []uint, payload []byte) {
	var slow []*client // Dropped after the read lock is released
	h.mu.RLock()
	for _, id := range userIDs {
		for c := range h.clients[id] {
			select {
			case c.send <- payload:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		logrus.WithField("user_id", c.userID).Warn("Dropping slow websocket client")
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	metrics.WSClients.Inc()
}

// unregister removes c once; later calls are no-ops
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.WSClients.Dec()
}

// Attach serves an upgraded connection for userID and blocks until it closes
func (h *Hub) Attach(conn *websocket.Conn, userID uint) {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	c.readPump()
	h.unregister(c)
}

// readPump only handles control frames; clients do not send events
func (c *client) readPump() {
	c.conn.SetReadLimit(512) // Control frames only
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

// writePump writes queued events and keeps the connection alive with pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
