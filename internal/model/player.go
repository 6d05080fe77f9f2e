package model

import "time"

// Player is a participant embedded in a session
type Player struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	IsHost        bool       `json:"isHost"`
	IsActive      bool       `json:"isActive"`
	HasScratched  bool       `json:"hasScratched"`
	HasVoted      bool       `json:"hasVoted"`
	IsInLobby     bool       `json:"isInLobby"`
	JoinedAt      time.Time  `json:"joinedAt"`
	LastHeartbeat *time.Time `json:"lastHeartbeat,omitempty"`
}

// LastSeen is the last heartbeat, or the join time if none was recorded yet
func (p *Player) LastSeen() time.Time {
	if p.LastHeartbeat != nil {
		return *p.LastHeartbeat
	}
	return p.JoinedAt
}

// PlayerJoinResponse is returned when a player creates or joins a game
type PlayerJoinResponse struct {
	Token       string `json:"token"`
	PlayerID    string `json:"playerId"`
	AccessToken string `json:"accessToken"`
}
