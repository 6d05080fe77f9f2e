package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType tags each variant of the outbound event feed
type EventType string

const (
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerLeft        EventType = "player_left"
	EventPlayerKicked      EventType = "player_kicked"
	EventHostChanged       EventType = "host_changed"
	EventCardsDealt        EventType = "cards_dealt"
	EventPlayerScratched   EventType = "player_scratched"
	EventDiscussionStarted EventType = "discussion_started"
	EventVotingStarted     EventType = "voting_started"
	EventVoteCast          EventType = "vote_cast"
	EventGameEnded         EventType = "game_ended"
	EventLobbyReopened     EventType = "lobby_reopened"
	EventPlayerReturned    EventType = "player_returned"
	EventPresenceChanged   EventType = "presence_changed"
	EventForceRefresh      EventType = "force_refresh"
	EventGameClosed        EventType = "game_closed"
)

// Event is one incremental change to a game. The set of implementations is closed.
type Event interface {
	Type() EventType
	isEvent()
}

type PlayerJoined struct {
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
}

type PlayerLeft struct {
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	NewHost     string `json:"newHost,omitempty"`
}

type PlayerKicked struct {
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
}

type HostChanged struct {
	Name string `json:"name"`
}

type CardsDealt struct {
	PlayerCount int `json:"playerCount"`
}

type PlayerScratched struct {
	Name           string `json:"name"`
	ScratchedCount int    `json:"scratchedCount"`
	Total          int    `json:"total"`
}

type DiscussionStarted struct{}

type VotingStarted struct {
	Deadline       time.Time `json:"deadline"`
	TimeoutSeconds int       `json:"timeoutSeconds"`
	Forced         bool      `json:"forced,omitempty"`
}

type VoteCast struct {
	VotedCount int `json:"votedCount"`
	Total      int `json:"total"`
}

// TallyLine is a tally entry keyed by display name
type TallyLine struct {
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

type GameEnded struct {
	Result       Outcome     `json:"result"`
	Reason       string      `json:"reason"`
	ImpostorName string      `json:"impostorName"`
	Word         string      `json:"word"`
	Tally        []TallyLine `json:"tally"`
	Tied         bool        `json:"tied,omitempty"`
}

type LobbyReopened struct {
	HostName string `json:"hostName"`
}

type PlayerReturned struct {
	Name       string `json:"name"`
	LobbyCount int    `json:"lobbyCount"`
}

type PresenceChanged struct {
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

type ForceRefresh struct {
	Reason string `json:"reason"`
}

type GameClosed struct{}

func (PlayerJoined) Type() EventType      { return EventPlayerJoined }
func (PlayerLeft) Type() EventType        { return EventPlayerLeft }
func (PlayerKicked) Type() EventType      { return EventPlayerKicked }
func (HostChanged) Type() EventType       { return EventHostChanged }
func (CardsDealt) Type() EventType        { return EventCardsDealt }
func (PlayerScratched) Type() EventType   { return EventPlayerScratched }
func (DiscussionStarted) Type() EventType { return EventDiscussionStarted }
func (VotingStarted) Type() EventType     { return EventVotingStarted }
func (VoteCast) Type() EventType          { return EventVoteCast }
func (GameEnded) Type() EventType         { return EventGameEnded }
func (LobbyReopened) Type() EventType     { return EventLobbyReopened }
func (PlayerReturned) Type() EventType    { return EventPlayerReturned }
func (PresenceChanged) Type() EventType   { return EventPresenceChanged }
func (ForceRefresh) Type() EventType      { return EventForceRefresh }
func (GameClosed) Type() EventType        { return EventGameClosed }

func (PlayerJoined) isEvent()      {}
func (PlayerLeft) isEvent()        {}
func (PlayerKicked) isEvent()      {}
func (HostChanged) isEvent()       {}
func (CardsDealt) isEvent()        {}
func (PlayerScratched) isEvent()   {}
func (DiscussionStarted) isEvent() {}
func (VotingStarted) isEvent()     {}
func (VoteCast) isEvent()          {}
func (GameEnded) isEvent()         {}
func (LobbyReopened) isEvent()     {}
func (PlayerReturned) isEvent()    {}
func (PresenceChanged) isEvent()   {}
func (ForceRefresh) isEvent()      {}
func (GameClosed) isEvent()        {}

// Envelope is the wire format published on the event channel
type Envelope struct {
	ID      string          `json:"id"`
	Type    EventType       `json:"type"`
	Token   string          `json:"token"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event for publishing
func NewEnvelope(id, token string, at time.Time, ev Event) (*Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Type(), err)
	}
	return &Envelope{
		ID:      id,
		Type:    ev.Type(),
		Token:   token,
		At:      at,
		Payload: data,
	}, nil
}

// Decode returns the typed event carried by the envelope
func (e *Envelope) Decode() (Event, error) {
	var ev Event
	switch e.Type {
	case EventPlayerJoined:
		ev = &PlayerJoined{}
	case EventPlayerLeft:
		ev = &PlayerLeft{}
	case EventPlayerKicked:
		ev = &PlayerKicked{}
	case EventHostChanged:
		ev = &HostChanged{}
	case EventCardsDealt:
		ev = &CardsDealt{}
	case EventPlayerScratched:
		ev = &PlayerScratched{}
	case EventDiscussionStarted:
		ev = &DiscussionStarted{}
	case EventVotingStarted:
		ev = &VotingStarted{}
	case EventVoteCast:
		ev = &VoteCast{}
	case EventGameEnded:
		ev = &GameEnded{}
	case EventLobbyReopened:
		ev = &LobbyReopened{}
	case EventPlayerReturned:
		ev = &PlayerReturned{}
	case EventPresenceChanged:
		ev = &PresenceChanged{}
	case EventForceRefresh:
		ev = &ForceRefresh{}
	case EventGameClosed:
		ev = &GameClosed{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Type, err)
		}
	}
	return ev, nil
}
