package game

import (
	"time"

	"imposter/internal/model"
)

// Start deals a new round: picks the impostor among eligible lobby players,
// assigns the word and prunes everyone else from the roster.
func Start(s *model.Session, rules Rules, rnd Rand, requesterID string, word Word) (Change, error) {
	if _, err := requireHost(s, requesterID); err != nil {
		return Change{}, err
	}
	if s.Phase != model.PhaseWaiting {
		return Change{}, ErrWrongPhase
	}

	eligible := make([]*model.Player, 0, len(s.Players))
	for _, p := range s.Players {
		// the host is always counted, even if its lobby flag is stale
		if p.IsActive && (p.IsInLobby || p.ID == requesterID) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < rules.MinPlayers {
		return Change{}, ErrNotEnoughPlayers
	}

	impostor := eligible[rnd.IntN(len(eligible))].ID

	resetRound(s)
	s.Players = eligible
	for _, p := range s.Players {
		p.IsInLobby = false
	}
	text := word.Text
	s.Word = &text
	s.Category = word.Category
	s.ImpostorID = &impostor
	s.Phase = model.PhaseCardsDealt

	c := Change{Dirty: true}
	c.emit(model.CardsDealt{PlayerCount: len(eligible)})
	return c, nil
}

// CardFor returns what the player's card shows
func CardFor(s *model.Session, playerID string) *model.Card {
	if s.Word == nil || s.ImpostorID == nil {
		return nil
	}
	if s.IsImpostor(playerID) {
		return &model.Card{IsImpostor: true, Category: s.Category}
	}
	return &model.Card{Word: *s.Word, Category: s.Category}
}

// Scratch reveals the player's card. Scratching again returns the same card
// without changing anything. online is the set of currently connected player
// ids; nil means every active player counts as connected.
func Scratch(s *model.Session, playerID string, online map[string]bool) (*model.Card, Change, error) {
	p, err := requireActive(s, playerID)
	if err != nil {
		return nil, Change{}, err
	}
	if p.HasScratched && s.ImpostorID != nil {
		return CardFor(s, playerID), Change{}, nil
	}
	if s.Phase != model.PhaseCardsDealt && s.Phase != model.PhaseScratching {
		return nil, Change{}, ErrWrongPhase
	}

	p.HasScratched = true
	if s.Phase == model.PhaseCardsDealt {
		s.Phase = model.PhaseScratching
	}

	active := s.ActivePlayers()
	c := Change{Dirty: true}
	c.emit(model.PlayerScratched{
		Name:           p.Name,
		ScratchedCount: countWhere(active, func(ap *model.Player) bool { return ap.HasScratched }),
		Total:          len(active),
	})
	c.merge(advanceAfterScratch(s, online))
	return CardFor(s, playerID), c, nil
}

// advanceAfterScratch moves to discussion once nobody is left to scratch. If only
// disconnected players are holding the round up, clients are told to refresh.
func advanceAfterScratch(s *model.Session, online map[string]bool) Change {
	var c Change
	if s.Phase != model.PhaseScratching && s.Phase != model.PhaseCardsDealt {
		return c
	}
	pendingOnline, pendingOffline := 0, 0
	for _, p := range s.ActivePlayers() {
		if p.HasScratched {
			continue
		}
		if online == nil || online[p.ID] {
			pendingOnline++
		} else {
			pendingOffline++
		}
	}
	switch {
	case pendingOnline == 0 && pendingOffline == 0:
		s.Phase = model.PhaseDiscussion
		c.Dirty = true
		c.emit(model.DiscussionStarted{})
	case pendingOnline == 0:
		c.emit(model.ForceRefresh{Reason: "waiting_for_disconnected_players"})
	}
	return c
}

// StartVoting opens the ballot. force lets the host skip scratching stragglers.
func StartVoting(s *model.Session, rules Rules, requesterID string, timeoutSeconds int, force bool, now time.Time) (Change, error) {
	if _, err := requireHost(s, requesterID); err != nil {
		return Change{}, err
	}
	forced := false
	switch s.Phase {
	case model.PhaseDiscussion:
	case model.PhaseCardsDealt, model.PhaseScratching:
		if !force {
			return Change{}, ErrWrongPhase
		}
		forced = true
	default:
		return Change{}, ErrWrongPhase
	}

	timeout := rules.VotingTimeout(timeoutSeconds)
	deadline := now.Add(time.Duration(timeout) * time.Second)

	s.Votes = []model.Vote{}
	for _, p := range s.Players {
		p.HasVoted = false
	}
	s.VotingDeadline = &deadline
	s.VotingTimeoutSeconds = &timeout
	s.Phase = model.PhaseVoting

	c := Change{Dirty: true}
	c.emit(model.VotingStarted{Deadline: deadline, TimeoutSeconds: timeout, Forced: forced})
	return c, nil
}

// VoteReceipt tells the voter what happened to the ballot
type VoteReceipt struct {
	Accepted     bool `json:"accepted"`
	AlreadyVoted bool `json:"alreadyVoted,omitempty"`
	// Closed is set when the deadline had passed; the round was resolved instead
	Closed bool `json:"closed,omitempty"`
}

// CastVote records a ballot against the named player
func CastVote(s *model.Session, voterID, targetName string, now time.Time) (VoteReceipt, Change, error) {
	voter, err := requireActive(s, voterID)
	if err != nil {
		return VoteReceipt{}, Change{}, err
	}
	if s.Phase != model.PhaseVoting {
		return VoteReceipt{}, Change{}, ErrWrongPhase
	}
	if deadlinePassed(s, now) {
		return VoteReceipt{Closed: true}, resolveVotes(s, true, now), nil
	}
	if voter.HasVoted {
		return VoteReceipt{AlreadyVoted: true}, Change{}, nil
	}

	target := findActiveByName(s, targetName)
	if target == nil {
		if findAnyByName(s, targetName) != nil {
			return VoteReceipt{}, Change{}, ErrTargetInactive
		}
		return VoteReceipt{}, Change{}, ErrTargetNotFound
	}
	if target.ID == voter.ID {
		return VoteReceipt{}, Change{}, ErrSelfVote
	}

	s.Votes = append(s.Votes, model.Vote{VoterID: voter.ID, TargetID: target.ID, Timestamp: now})
	voter.HasVoted = true

	active := s.ActivePlayers()
	c := Change{Dirty: true}
	c.emit(model.VoteCast{
		VotedCount: countWhere(active, func(ap *model.Player) bool { return ap.HasVoted }),
		Total:      len(active),
	})
	if allVoted(s) {
		c.merge(resolveVotes(s, false, now))
	}
	return VoteReceipt{Accepted: true}, c, nil
}

// CheckDeadline resolves the round if voting is open and its deadline has passed.
// Any request path may call it; it is a no-op otherwise.
func CheckDeadline(s *model.Session, now time.Time) Change {
	if s.Phase != model.PhaseVoting || !deadlinePassed(s, now) {
		return Change{}
	}
	return resolveVotes(s, true, now)
}

// VotingOverdue reports whether the ballot is open past its deadline
func VotingOverdue(s *model.Session, now time.Time) bool {
	return s.Phase == model.PhaseVoting && deadlinePassed(s, now)
}

func deadlinePassed(s *model.Session, now time.Time) bool {
	return s.VotingDeadline != nil && now.After(*s.VotingDeadline)
}

func allVoted(s *model.Session) bool {
	active := s.ActivePlayers()
	return len(active) > 0 && countWhere(active, func(p *model.Player) bool { return p.HasVoted }) == len(active)
}

// Reevaluate re-checks a stalled scratching phase after the connection roster changed
func Reevaluate(s *model.Session, online map[string]bool) Change {
	return advanceAfterScratch(s, online)
}
