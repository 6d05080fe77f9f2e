package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"imposter/internal/model"
)

// Hub fans events out to the WebSocket clients connected to this instance
type Hub struct {
	// game token -> player id -> conn
	conns map[string]map[string]*Connection
	mu    sync.RWMutex

	broadcast chan *model.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	Token    string
	PlayerID string
	Send     chan []byte

	closed bool
}

// close must be called with the hub lock held
func (c *Connection) close() {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:     make(map[string]map[string]*Connection),
		broadcast: make(chan *model.Envelope, 256),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case env := <-h.broadcast:
			h.fanout(env)
		}
	}
}

func (h *Hub) fanout(env *model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("token", env.Token).Msg("failed to encode event")
		return
	}

	h.mu.RLock()
	for _, conn := range h.conns[env.Token] {
		select {
		case conn.Send <- data:
		default:
			// Drop message if buffer full; the client refetches on its next action
			log.Warn().Str("token", env.Token).Msg("client too slow, event dropped")
		}
	}
	h.mu.RUnlock()

	if env.Type == model.EventGameClosed {
		h.closeGame(env.Token)
	}
}

// Register adds a connection, replacing an older one for the same player
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := h.conns[conn.Token]
	if players == nil {
		players = make(map[string]*Connection)
		h.conns[conn.Token] = players
	}
	if old, ok := players[conn.PlayerID]; ok {
		old.close()
	}
	players[conn.PlayerID] = conn
	log.Debug().Str("token", conn.Token).Int("connections", len(players)).Msg("player connected")
}

// Unregister removes a connection and reports whether it was still the player's current one
func (h *Hub) Unregister(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	players, ok := h.conns[conn.Token]
	if !ok || players[conn.PlayerID] != conn {
		return false
	}
	delete(players, conn.PlayerID)
	if len(players) == 0 {
		delete(h.conns, conn.Token)
	}
	conn.close()
	log.Debug().Str("token", conn.Token).Msg("player disconnected")
	return true
}

// Deliver queues an event for the game's local clients
func (h *Hub) Deliver(env *model.Envelope) {
	select {
	case h.broadcast <- env:
	case <-h.done:
	default:
		log.Warn().Str("token", env.Token).Str("event", string(env.Type)).Msg("hub backlog full, event dropped")
	}
}

// Connections returns how many clients of a game are connected here
func (h *Hub) Connections(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[token])
}

func (h *Hub) closeGame(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.conns[token] {
		conn.close()
	}
	delete(h.conns, token)
}

// Close stops delivery and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for token, players := range h.conns {
			for _, conn := range players {
				conn.close()
			}
			delete(h.conns, token)
		}
	})
}
