package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"imposter/internal/game"
	"imposter/internal/transport/rest/middleware"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512
	presenceTimeout = 3 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS layer for the REST API
	},
}

// Presence records which players hold a live socket
type Presence interface {
	PlayerConnected(ctx context.Context, token, playerID string) error
	Touch(ctx context.Context, token, playerID string) error
	PlayerDisconnected(ctx context.Context, token, playerID string) error
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	presence Presence
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, presence Presence) *Handler {
	return &Handler{
		hub:      hub,
		presence: presence,
	}
}

// GameWS handles GET /v1/ws/games/{token}; the player is authenticated by middleware
func (h *Handler) GameWS(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetGameToken(r.Context())
	playerID := middleware.GetPlayerID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), presenceTimeout)
	err := h.presence.PlayerConnected(ctx, token, playerID)
	cancel()
	if err != nil {
		switch game.KindOf(err) {
		case game.KindNotFound:
			http.Error(w, "not in this game", http.StatusNotFound)
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("failed to record presence")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("WebSocket upgrade error")
		h.disconnected(token, playerID)
		return
	}

	conn := &Connection{
		Token:    token,
		PlayerID: playerID,
		Send:     make(chan []byte, 256),
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) disconnected(token, playerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := h.presence.PlayerDisconnected(ctx, token, playerID); err != nil && game.KindOf(err) != game.KindNotFound {
		log.Warn().Err(err).Str("token", token).Msg("failed to clear presence")
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		if h.hub.Unregister(conn) {
			h.disconnected(conn.Token, conn.PlayerID)
		}
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
		defer cancel()
		if err := h.presence.Touch(ctx, conn.Token, conn.PlayerID); err != nil {
			log.Warn().Err(err).Str("token", conn.Token).Msg("failed to refresh presence")
		}
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("token", conn.Token).Msg("WebSocket error")
			}
			break
		}
		// clients talk over REST; anything received only proves liveness
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
