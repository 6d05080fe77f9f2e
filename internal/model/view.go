package model

import "time"

// Card is what a player sees after scratching
type Card struct {
	IsImpostor bool   `json:"isImpostor"`
	Word       string `json:"word,omitempty"`
	Category   string `json:"category,omitempty"`
}

// PlayerView is a player as seen by other players; it never carries ids
type PlayerView struct {
	Name         string `json:"name"`
	IsHost       bool   `json:"isHost"`
	IsActive     bool   `json:"isActive"`
	HasScratched bool   `json:"hasScratched"`
	HasVoted     bool   `json:"hasVoted"`
	IsInLobby    bool   `json:"isInLobby"`
	IsYou        bool   `json:"isYou"`
}

// GameView is the per-requester projection of a session
type GameView struct {
	Token   string       `json:"token"`
	Phase   Phase        `json:"phase"`
	Players []PlayerView `json:"players"`
	IsHost  bool         `json:"isHost"`

	ActiveCount    int `json:"activeCount"`
	LobbyCount     int `json:"lobbyCount"`
	ScratchedCount int `json:"scratchedCount"`
	VotedCount     int `json:"votedCount"`
	MinPlayers     int `json:"minPlayers"`
	MaxPlayers     int `json:"maxPlayers"`

	Card     *Card  `json:"card,omitempty"`
	VotedFor string `json:"votedFor,omitempty"`

	VotingDeadline       *time.Time `json:"votingDeadline,omitempty"`
	VotingTimeoutSeconds *int       `json:"votingTimeoutSeconds,omitempty"`

	Result       Outcome     `json:"result,omitempty"`
	EndReason    string      `json:"endReason,omitempty"`
	ImpostorName string      `json:"impostorName,omitempty"`
	Word         string      `json:"word,omitempty"`
	Tally        []TallyLine `json:"tally,omitempty"`
}
