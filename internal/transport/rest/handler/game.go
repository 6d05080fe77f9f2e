package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"imposter/internal/service"
	"imposter/internal/transport/rest/middleware"
)

// GameHandler handles game endpoints
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// NameRequest carries a display name for create and join, or a target for kick
type NameRequest struct {
	Name string `json:"name"`
}

// VotingRequest is the request body for opening the ballot
type VotingRequest struct {
	TimeoutSeconds int  `json:"timeoutSeconds"`
	Force          bool `json:"force"`
}

// VoteRequest names the accused player
type VoteRequest struct {
	Target string `json:"target"`
}

// Create handles POST /v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.gameSvc.CreateGame(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Join handles POST /v1/games/{token}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.gameSvc.Join(r.Context(), mux.Vars(r)["token"], req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/games/{token}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, playerID := player(r)
	view, err := h.gameSvc.View(r.Context(), token, playerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Start handles POST /v1/games/{token}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	token, playerID := player(r)
	if err := h.gameSvc.Start(r.Context(), token, playerID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// Scratch handles POST /v1/games/{token}/scratch
func (h *GameHandler) Scratch(w http.ResponseWriter, r *http.Request) {
	token, playerID := player(r)
	card, err := h.gameSvc.Scratch(r.Context(), token, playerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// StartVoting handles POST /v1/games/{token}/voting
func (h *GameHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	var req VotingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, playerID := player(r)
	if err := h.gameSvc.StartVoting(r.Context(), token, playerID, req.TimeoutSeconds, req.Force); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "voting"})
}

// Vote handles POST /v1/games/{token}/votes
func (h *GameHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, playerID := player(r)
	receipt, err := h.gameSvc.Vote(r.Context(), token, playerID, req.Target)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// Leave handles POST /v1/games/{token}/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	token, playerID := player(r)
	if err := h.gameSvc.Leave(r.Context(), token, playerID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// Kick handles POST /v1/games/{token}/kick
func (h *GameHandler) Kick(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, playerID := player(r)
	if err := h.gameSvc.Kick(r.Context(), token, playerID, req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "kicked"})
}

// Restart handles POST /v1/games/{token}/restart
func (h *GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	token, playerID := player(r)
	status, err := h.gameSvc.Restart(r.Context(), token, playerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Heartbeat handles POST /v1/games/{token}/heartbeat
func (h *GameHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	token, playerID := player(r)
	if err := h.gameSvc.Heartbeat(r.Context(), token, playerID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckTimeout handles POST /v1/games/{token}/check-timeout
func (h *GameHandler) CheckTimeout(w http.ResponseWriter, r *http.Request) {
	token, _ := player(r)
	resolved, err := h.gameSvc.CheckTimeout(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": resolved})
}

// player returns the authenticated game token and player id
func player(r *http.Request) (string, string) {
	return middleware.GetGameToken(r.Context()), middleware.GetPlayerID(r.Context())
}
