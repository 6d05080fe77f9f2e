package game

import (
	"fmt"
	"time"

	"imposter/internal/model"
)

// NewSession creates a game in the lobby with its host as the only player
func NewSession(token, hostID, hostName string, rules Rules, now time.Time) (*model.Session, error) {
	name, err := NormalizeName(hostName, rules.MaxNameLength)
	if err != nil {
		return nil, err
	}
	host := &model.Player{
		ID:        hostID,
		Name:      name,
		IsHost:    true,
		IsActive:  true,
		IsInLobby: true,
		JoinedAt:  now,
	}
	return &model.Session{
		Token:     token,
		HostID:    hostID,
		Players:   []*model.Player{host},
		Phase:     model.PhaseWaiting,
		Votes:     []model.Vote{},
		CreatedAt: now,
	}, nil
}

// Join adds a new player to the lobby
func Join(s *model.Session, rules Rules, playerID, name string, now time.Time) (Change, error) {
	name, err := NormalizeName(name, rules.MaxNameLength)
	if err != nil {
		return Change{}, err
	}
	if s.Phase != model.PhaseWaiting {
		return Change{}, ErrWrongPhase
	}
	active := s.ActivePlayers()
	if len(active) == 0 {
		// last player left; the session is about to be deleted
		return Change{}, ErrGameNotFound
	}
	if len(s.Players) >= rules.MaxPlayers {
		return Change{}, ErrGameFull
	}
	if findActiveByName(s, name) != nil {
		return Change{}, ErrNameTaken
	}

	s.Players = append(s.Players, &model.Player{
		ID:        playerID,
		Name:      name,
		IsActive:  true,
		IsInLobby: true,
		JoinedAt:  now,
	})

	c := Change{Dirty: true}
	c.emit(model.PlayerJoined{Name: name, PlayerCount: len(active) + 1})
	return c, nil
}

// Kick removes a non-host player from the lobby
func Kick(s *model.Session, requesterID, targetName string) (Change, error) {
	if _, err := requireHost(s, requesterID); err != nil {
		return Change{}, err
	}
	if s.Phase != model.PhaseWaiting {
		return Change{}, ErrWrongPhase
	}
	target := findAnyByName(s, targetName)
	if target == nil {
		return Change{}, ErrTargetNotFound
	}
	if target.IsHost {
		return Change{}, ErrCannotKickHost
	}

	removePlayer(s, target.ID)

	c := Change{Dirty: true}
	c.emit(model.PlayerKicked{Name: target.Name, PlayerCount: len(s.ActivePlayers())})
	return c, nil
}

// Leave marks a player as gone. In the lobby the player is purged; mid-round it
// is kept inactive so votes and the impostor reference stay meaningful.
func Leave(s *model.Session, rnd Rand, playerID string, now time.Time) (Change, error) {
	p := s.Player(playerID)
	if p == nil {
		return Change{}, ErrPlayerNotFound
	}
	if !p.IsActive {
		return Change{}, nil
	}

	wasHost := p.IsHost
	p.IsHost = false
	p.IsActive = false
	p.IsInLobby = false
	if s.Phase == model.PhaseWaiting {
		removePlayer(s, p.ID)
	}

	c := Change{Dirty: true}
	active := s.ActivePlayers()
	if len(active) == 0 {
		s.HostID = ""
		c.Empty = true
		c.emit(model.GameClosed{})
		return c, nil
	}

	newHost := ""
	if wasHost {
		h := active[rnd.IntN(len(active))]
		h.IsHost = true
		s.HostID = h.ID
		newHost = h.Name
	}
	c.emit(model.PlayerLeft{Name: p.Name, PlayerCount: len(active), NewHost: newHost})
	if newHost != "" {
		c.emit(model.HostChanged{Name: newHost})
	}

	if !s.Phase.InRound() {
		return c, nil
	}

	crewLeft := countWhere(active, func(ap *model.Player) bool { return !s.IsImpostor(ap.ID) })
	switch {
	case s.IsImpostor(p.ID):
		c.merge(endRound(s, model.OutcomePlayersWin, "The imposter left the game", now))
	case crewLeft == 0:
		c.merge(endRound(s, model.OutcomeImposterWins, "Everyone except the imposter left the game", now))
	case wasHost:
		c.merge(endRound(s, model.OutcomeNone, fmt.Sprintf("%s left mid-round, so the round was called off", p.Name), now))
	case s.Phase == model.PhaseScratching || s.Phase == model.PhaseCardsDealt:
		c.merge(advanceAfterScratch(s, nil))
	case s.Phase == model.PhaseVoting:
		if allVoted(s) {
			c.merge(resolveVotes(s, false, now))
		}
	}
	return c, nil
}

// RestartStatus reports what Restart did for the caller
type RestartStatus string

const (
	RestartLobbyOpened    RestartStatus = "lobby_opened"
	RestartJoinedLobby    RestartStatus = "joined_lobby"
	RestartWaitingForHost RestartStatus = "waiting_for_host"
)

// Restart moves the caller into a fresh lobby. The host opens it (aborting any
// round in progress); everybody else may only follow once the host is back.
func Restart(s *model.Session, requesterID string, now time.Time) (RestartStatus, Change, error) {
	p, err := requireActive(s, requesterID)
	if err != nil {
		return "", Change{}, err
	}

	if p.IsHost && s.Phase != model.PhaseWaiting {
		resetRound(s)
		kept := s.Players[:0]
		for _, sp := range s.Players {
			if sp.IsActive {
				sp.IsInLobby = false
				kept = append(kept, sp)
			}
		}
		s.Players = kept
		p.IsInLobby = true
		s.Phase = model.PhaseWaiting

		c := Change{Dirty: true}
		c.emit(model.LobbyReopened{HostName: p.Name})
		return RestartLobbyOpened, c, nil
	}

	switch s.Phase {
	case model.PhaseResult:
		return RestartWaitingForHost, Change{}, nil
	case model.PhaseWaiting:
		if !p.IsHost {
			if h := s.Host(); h == nil || !h.IsInLobby {
				return RestartWaitingForHost, Change{}, nil
			}
		}
		if p.IsInLobby {
			return RestartJoinedLobby, Change{}, nil
		}
		p.IsInLobby = true
		c := Change{Dirty: true}
		c.emit(model.PlayerReturned{
			Name:       p.Name,
			LobbyCount: countWhere(s.Players, func(sp *model.Player) bool { return sp.IsActive && sp.IsInLobby }),
		})
		return RestartJoinedLobby, c, nil
	default:
		return "", Change{}, ErrWrongPhase
	}
}

func resetRound(s *model.Session) {
	s.Word = nil
	s.Category = ""
	s.ImpostorID = nil
	s.Votes = []model.Vote{}
	s.VotingDeadline = nil
	s.VotingTimeoutSeconds = nil
	s.Result = model.OutcomeNone
	s.EndReason = nil
	s.Tally = nil
	s.EndedAt = nil
	for _, p := range s.Players {
		p.HasScratched = false
		p.HasVoted = false
	}
}
