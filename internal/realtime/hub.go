// Package realtime pushes league events to websocket subscribers. With a redis client the hub
// fans events out through pub/sub so every API instance reaches its own connections.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"survivor-api/internal/domain"
	"survivor-api/pkg/logger"
	"survivor-api/pkg/redis"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Hub tracks websocket clients per league room
type Hub struct {
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	redis  *redis.Client
	logger *logger.Logger

	subscribed chan struct{}
}

// NewHub creates a hub. rc may be nil, in which case events only reach local clients.
func NewHub(rc *redis.Client, log *logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		redis:      rc,
		logger:     log.Component("realtime_hub"),
		subscribed: make(chan struct{}),
	}
}

// Run relays events from redis to local rooms until ctx is done, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	if h.redis == nil {
		close(h.subscribed)
		<-ctx.Done()
		return
	}

	channel := h.redis.KeyBuilder.ChannelLeagueEvents()
	ps := h.redis.Subscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		h.logger.WithError(err).Error("Failed to subscribe to league events")
		close(h.subscribed)
		<-ctx.Done()
		return
	}
	close(h.subscribed)
	h.logger.WithField("channel", channel).Info("Subscribed to league events")

	messages := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event domain.LiveEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.WithError(err).Warn("Dropping malformed league event")
				continue
			}
			h.broadcast(event)
		}
	}
}

// Publish delivers an event to the league's subscribers on every instance. If redis is
// unavailable the event still reaches this instance's clients.
func (h *Hub) Publish(ctx context.Context, event domain.LiveEvent) {
	if h.redis != nil {
		payload, err := json.Marshal(event)
		if err == nil {
			err = h.redis.Publish(ctx, h.redis.KeyBuilder.ChannelLeagueEvents(), payload)
		}
		if err == nil {
			return
		}
		h.logger.WithError(err).Warn("Failed to publish league event, delivering locally")
	}
	h.broadcast(event)
}

// Attach registers a websocket connection in a league room and starts its pumps
func (h *Hub) Attach(conn *websocket.Conn, leagueID, userID string) *Client {
	c := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		LeagueID: leagueID,
		UserID:   userID,
	}

	h.mu.Lock()
	if h.rooms[leagueID] == nil {
		h.rooms[leagueID] = make(map[*Client]bool)
	}
	h.rooms[leagueID][c] = true
	size := len(h.rooms[leagueID])
	h.mu.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"league_id": leagueID,
		"user_id":   userID,
		"clients":   size,
	}).Debug("Client joined league room")

	go c.writePump()
	go c.readPump()
	return c
}

// RoomSize returns the number of local clients watching a league
func (h *Hub) RoomSize(leagueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[leagueID])
}

// Ready is closed once the hub is receiving relayed events
func (h *Hub) Ready() <-chan struct{} {
	return h.subscribed
}

func (h *Hub) broadcast(event domain.LiveEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode league event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[event.LeagueID] {
		select {
		case c.send <- payload:
		default:
			h.logger.WithField("league_id", event.LeagueID).Warn("Client send buffer full, dropping event")
		}
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.LeagueID]
	if !ok || !room[c] {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.LeagueID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for leagueID, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, leagueID)
	}
}

// Client is one websocket subscriber
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	LeagueID string
	UserID   string
}

// readPump discards inbound messages and keeps the read deadline fresh
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("Websocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
