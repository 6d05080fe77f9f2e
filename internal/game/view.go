package game

import "imposter/internal/model"

// BuildView projects a session for one of its players
func BuildView(s *model.Session, rules Rules, playerID string) (*model.GameView, error) {
	me := s.Player(playerID)
	if me == nil {
		return nil, ErrPlayerNotFound
	}

	v := &model.GameView{
		Token:                s.Token,
		Phase:                s.Phase,
		Players:              make([]model.PlayerView, 0, len(s.Players)),
		IsHost:               me.IsHost,
		MinPlayers:           rules.MinPlayers,
		MaxPlayers:           rules.MaxPlayers,
		VotingDeadline:       s.VotingDeadline,
		VotingTimeoutSeconds: s.VotingTimeoutSeconds,
	}
	for _, p := range s.Players {
		v.Players = append(v.Players, model.PlayerView{
			Name:         p.Name,
			IsHost:       p.IsHost,
			IsActive:     p.IsActive,
			HasScratched: p.HasScratched,
			HasVoted:     p.HasVoted,
			IsInLobby:    p.IsInLobby,
			IsYou:        p.ID == me.ID,
		})
		if !p.IsActive {
			continue
		}
		v.ActiveCount++
		if p.IsInLobby {
			v.LobbyCount++
		}
		if p.HasScratched {
			v.ScratchedCount++
		}
		if p.HasVoted {
			v.VotedCount++
		}
	}

	if me.HasScratched || s.Phase == model.PhaseResult {
		v.Card = CardFor(s, me.ID)
	}
	for _, vote := range s.Votes {
		if vote.VoterID == me.ID {
			v.VotedFor = nameOf(s, vote.TargetID)
		}
	}

	if s.Phase == model.PhaseResult {
		v.Result = s.Result
		if s.EndReason != nil {
			v.EndReason = *s.EndReason
		}
		if s.ImpostorID != nil {
			v.ImpostorName = nameOf(s, *s.ImpostorID)
		}
		if s.Word != nil {
			v.Word = *s.Word
		}
		v.Tally = TallyLines(s)
	}
	return v, nil
}
