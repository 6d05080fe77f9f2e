package game

import (
	"fmt"
	"sort"
	"time"

	"imposter/internal/model"
)

// Verdict is the outcome of a vote tally
type Verdict struct {
	MostVotedID string
	Outcome     model.Outcome
	Tied        bool
}

// Tally counts ballots per accused player. Ballots against players who are no
// longer active are dropped; ballots from voters who have since left still count.
// Entries are ordered by votes, then join order.
func Tally(s *model.Session) []model.TallyEntry {
	counts := make(map[string]int)
	for _, v := range s.Votes {
		if t := s.Player(v.TargetID); t != nil && t.IsActive {
			counts[v.TargetID]++
		}
	}
	tally := make([]model.TallyEntry, 0, len(counts))
	for _, p := range s.Players {
		if n, ok := counts[p.ID]; ok {
			tally = append(tally, model.TallyEntry{PlayerID: p.ID, Votes: n})
		}
	}
	sort.SliceStable(tally, func(i, j int) bool { return tally[i].Votes > tally[j].Votes })
	return tally
}

// Resolve decides a tally. A strict maximum names the accused; a shared maximum
// or an empty tally lets the impostor win.
func Resolve(tally []model.TallyEntry, impostorID string) Verdict {
	top := 0
	var leaders []string
	for _, e := range tally {
		switch {
		case e.Votes > top:
			top = e.Votes
			leaders = []string{e.PlayerID}
		case e.Votes == top && top > 0:
			leaders = append(leaders, e.PlayerID)
		}
	}
	if len(leaders) != 1 {
		return Verdict{Outcome: model.OutcomeImposterWins, Tied: len(leaders) > 1}
	}
	v := Verdict{MostVotedID: leaders[0], Outcome: model.OutcomeImposterWins}
	if leaders[0] == impostorID {
		v.Outcome = model.OutcomePlayersWin
	}
	return v
}

// resolveVotes closes the ballot. On timeout, silent players are marked voted
// without a ballot so they no longer block anything.
func resolveVotes(s *model.Session, timedOut bool, now time.Time) Change {
	if timedOut {
		for _, p := range s.ActivePlayers() {
			p.HasVoted = true
		}
	}

	impostorID := ""
	if s.ImpostorID != nil {
		impostorID = *s.ImpostorID
	}
	tally := Tally(s)
	v := Resolve(tally, impostorID)

	var reason string
	switch {
	case v.Tied:
		reason = "The votes were tied, so the imposter got away"
	case v.MostVotedID == "":
		reason = "No one was accused, so the imposter got away"
	case v.Outcome == model.OutcomePlayersWin:
		reason = fmt.Sprintf("%s was the imposter and got caught", nameOf(s, v.MostVotedID))
	default:
		reason = fmt.Sprintf("%s was wrongly accused, so the imposter got away", nameOf(s, v.MostVotedID))
	}

	s.Tally = tally
	c := endRound(s, v.Outcome, reason, now)
	if ev, ok := c.Events[len(c.Events)-1].(model.GameEnded); ok {
		ev.Tied = v.Tied
		c.Events[len(c.Events)-1] = ev
	}
	return c
}

// endRound moves the session to RESULT with the given outcome
func endRound(s *model.Session, outcome model.Outcome, reason string, now time.Time) Change {
	s.Phase = model.PhaseResult
	s.Result = outcome
	s.EndReason = &reason
	s.EndedAt = &now
	s.VotingDeadline = nil
	s.VotingTimeoutSeconds = nil

	c := Change{Dirty: true}
	c.emit(GameEndedEvent(s))
	return c
}

// GameEndedEvent summarizes a resolved round by display name
func GameEndedEvent(s *model.Session) model.GameEnded {
	ev := model.GameEnded{
		Result: s.Result,
		Tally:  TallyLines(s),
	}
	if s.EndReason != nil {
		ev.Reason = *s.EndReason
	}
	if s.ImpostorID != nil {
		ev.ImpostorName = nameOf(s, *s.ImpostorID)
	}
	if s.Word != nil {
		ev.Word = *s.Word
	}
	return ev
}

// TallyLines converts the stored tally to names
func TallyLines(s *model.Session) []model.TallyLine {
	lines := make([]model.TallyLine, 0, len(s.Tally))
	for _, e := range s.Tally {
		lines = append(lines, model.TallyLine{Name: nameOf(s, e.PlayerID), Votes: e.Votes})
	}
	return lines
}

func nameOf(s *model.Session, id string) string {
	if p := s.Player(id); p != nil {
		return p.Name
	}
	return ""
}
