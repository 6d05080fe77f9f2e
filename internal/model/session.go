package model

import "time"

// Phase is the state-machine state of a game session
type Phase string

const (
	PhaseWaiting    Phase = "WAITING"
	PhaseCardsDealt Phase = "CARDS_DEALT"
	PhaseScratching Phase = "SCRATCHING"
	PhaseDiscussion Phase = "DISCUSSION"
	PhaseVoting     Phase = "VOTING"
	PhaseResult     Phase = "RESULT"
)

// InRound reports whether a round is in progress (cards dealt, not yet resolved)
func (p Phase) InRound() bool {
	return p != PhaseWaiting && p != PhaseResult
}

// Outcome is the resolved winner of a round
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomePlayersWin   Outcome = "PLAYERS_WIN"
	OutcomeImposterWins Outcome = "IMPOSTER_WINS"
)

// Session is the full mutable record of one game, stored under its token
type Session struct {
	Token    string    `json:"token"`
	HostID   string    `json:"hostId"`
	Players  []*Player `json:"players"`
	Phase    Phase     `json:"phase"`
	Word     *string   `json:"word"`
	Category string    `json:"category,omitempty"`

	ImpostorID *string `json:"impostorId"`
	Votes      []Vote  `json:"votes"`

	VotingDeadline       *time.Time `json:"votingDeadline"`
	VotingTimeoutSeconds *int       `json:"votingTimeoutSeconds"`

	Result    Outcome      `json:"result,omitempty"`
	EndReason *string      `json:"endReason"`
	Tally     []TallyEntry `json:"tally,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	EndedAt   *time.Time `json:"endedAt"`
}

// Vote is a single ballot cast during a voting phase
type Vote struct {
	VoterID   string    `json:"voterId"`
	TargetID  string    `json:"targetId"`
	Timestamp time.Time `json:"timestamp"`
}

// TallyEntry is the vote count for one accused player
type TallyEntry struct {
	PlayerID string `json:"playerId"`
	Votes    int    `json:"votes"`
}

// Player returns the player with the given id, or nil
func (s *Session) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host returns the current host, or nil
func (s *Session) Host() *Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// ActivePlayers returns active players in join order
func (s *Session) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active
}

// IsImpostor reports whether id is this round's impostor
func (s *Session) IsImpostor(id string) bool {
	return s.ImpostorID != nil && *s.ImpostorID == id
}
