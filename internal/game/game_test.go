package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imposter/internal/model"
)

var t0 = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

// fixedRand always picks index n (mod the range)
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

var testWord = Word{Text: "lighthouse", Category: "places"}

// newLobby builds a WAITING session with n players; p0 is the host
func newLobby(t *testing.T, n int) *model.Session {
	t.Helper()
	rules := DefaultRules()
	s, err := NewSession("ABC234", "p0", "Player0", rules, t0)
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		_, err := Join(s, rules, fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), t0)
		require.NoError(t, err)
	}
	return s
}

// newRound deals a round with impostor at index imp
func newRound(t *testing.T, n, imp int) *model.Session {
	t.Helper()
	s := newLobby(t, n)
	_, err := Start(s, DefaultRules(), fixedRand(imp), "p0", testWord)
	require.NoError(t, err)
	return s
}

func toDiscussion(t *testing.T, s *model.Session) {
	t.Helper()
	for _, p := range s.ActivePlayers() {
		_, _, err := Scratch(s, p.ID, nil)
		require.NoError(t, err)
	}
	require.Equal(t, model.PhaseDiscussion, s.Phase)
}

func hostCount(s *model.Session) int {
	n := 0
	for _, p := range s.Players {
		if p.IsHost {
			n++
		}
	}
	return n
}

func eventTypes(c Change) []model.EventType {
	types := make([]model.EventType, 0, len(c.Events))
	for _, ev := range c.Events {
		types = append(types, ev.Type())
	}
	return types
}

func TestJoin(t *testing.T) {
	rules := DefaultRules()

	t.Run("appends in join order", func(t *testing.T) {
		s := newLobby(t, 3)
		c, err := Join(s, rules, "p9", "  Zed ", t0)
		require.NoError(t, err)
		assert.True(t, c.Dirty)
		require.Len(t, s.Players, 4)
		last := s.Players[3]
		assert.Equal(t, "Zed", last.Name)
		assert.True(t, last.IsInLobby)
		assert.False(t, last.HasScratched)
		assert.False(t, last.HasVoted)
		assert.False(t, last.IsHost)
		assert.Equal(t, []model.EventType{model.EventPlayerJoined}, eventTypes(c))
		assert.Equal(t, model.PlayerJoined{Name: "Zed", PlayerCount: 4}, c.Events[0])
	})

	t.Run("name collision is case-insensitive", func(t *testing.T) {
		s := newLobby(t, 2)
		_, err := Join(s, rules, "px", "PLAYER1", t0)
		assert.ErrorIs(t, err, ErrNameTaken)
		assert.Equal(t, KindConflict, KindOf(err))
		assert.Len(t, s.Players, 2)
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		s := newLobby(t, 1)
		_, err := Join(s, rules, "px", "   ", t0)
		assert.ErrorIs(t, err, ErrInvalidName)
		_, err = Join(s, rules, "px", "abcdefghijklmnopqrstu", t0)
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("rejects when full", func(t *testing.T) {
		s := newLobby(t, rules.MaxPlayers)
		_, err := Join(s, rules, "px", "Late", t0)
		assert.ErrorIs(t, err, ErrGameFull)
		assert.Len(t, s.Players, rules.MaxPlayers)
	})

	t.Run("rejects mid-round", func(t *testing.T) {
		s := newRound(t, 3, 0)
		_, err := Join(s, rules, "px", "Late", t0)
		assert.ErrorIs(t, err, ErrWrongPhase)
		assert.Equal(t, KindForbidden, KindOf(err))
	})
}

func TestStart(t *testing.T) {
	rules := DefaultRules()

	t.Run("three players deal a round", func(t *testing.T) {
		s := newLobby(t, 3)
		c, err := Start(s, rules, rand.New(rand.NewPCG(1, 2)), "p0", testWord)
		require.NoError(t, err)

		assert.Equal(t, model.PhaseCardsDealt, s.Phase)
		require.NotNil(t, s.Word)
		assert.Equal(t, "lighthouse", *s.Word)
		require.NotNil(t, s.ImpostorID)
		assert.Contains(t, []string{"p0", "p1", "p2"}, *s.ImpostorID)
		assert.Equal(t, []model.EventType{model.EventCardsDealt}, eventTypes(c))
	})

	t.Run("impostor is uniform over eligible players", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 3; i++ {
			s := newLobby(t, 3)
			_, err := Start(s, rules, fixedRand(i), "p0", testWord)
			require.NoError(t, err)
			seen[*s.ImpostorID] = true
		}
		assert.Len(t, seen, 3)
	})

	t.Run("only the host may start", func(t *testing.T) {
		s := newLobby(t, 3)
		_, err := Start(s, rules, fixedRand(0), "p1", testWord)
		assert.ErrorIs(t, err, ErrNotHost)
		assert.Equal(t, model.PhaseWaiting, s.Phase)
	})

	t.Run("needs the minimum", func(t *testing.T) {
		s := newLobby(t, 2)
		_, err := Start(s, rules, fixedRand(0), "p0", testWord)
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
		assert.Nil(t, s.Word)
	})

	t.Run("prunes players not in the lobby and trusts the host", func(t *testing.T) {
		s := newLobby(t, 5)
		s.Players[0].IsInLobby = false // host flag stale
		s.Players[4].IsInLobby = false // never came back
		_, err := Start(s, rules, fixedRand(3), "p0", testWord)
		require.NoError(t, err)
		require.Len(t, s.Players, 4)
		assert.Nil(t, s.Player("p4"))
		assert.Equal(t, "p3", *s.ImpostorID)
	})

	t.Run("host exception does not make up for missing players", func(t *testing.T) {
		s := newLobby(t, 3)
		s.Players[2].IsInLobby = false
		_, err := Start(s, rules, fixedRand(0), "p0", testWord)
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
		assert.Len(t, s.Players, 3)
	})
}

func TestScratch(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		s := newRound(t, 3, 1)
		card1, c1, err := Scratch(s, "p0", nil)
		require.NoError(t, err)
		assert.True(t, c1.Dirty)
		assert.Equal(t, model.PhaseScratching, s.Phase)

		card2, c2, err := Scratch(s, "p0", nil)
		require.NoError(t, err)
		assert.False(t, c2.Dirty)
		assert.Empty(t, c2.Events)
		assert.Equal(t, card1, card2)
		assert.Equal(t, "lighthouse", card2.Word)

		scratched := 0
		for _, p := range s.Players {
			if p.HasScratched {
				scratched++
			}
		}
		assert.Equal(t, 1, scratched)
	})

	t.Run("impostor card hides the word", func(t *testing.T) {
		s := newRound(t, 3, 1)
		card, _, err := Scratch(s, "p1", nil)
		require.NoError(t, err)
		assert.True(t, card.IsImpostor)
		assert.Empty(t, card.Word)
		assert.Equal(t, "places", card.Category)
	})

	orders := [][]string{
		{"p0", "p1", "p2"}, {"p0", "p2", "p1"}, {"p1", "p0", "p2"},
		{"p1", "p2", "p0"}, {"p2", "p0", "p1"}, {"p2", "p1", "p0"},
	}
	for _, order := range orders {
		t.Run(fmt.Sprintf("discussion exactly once %v", order), func(t *testing.T) {
			s := newRound(t, 3, 0)
			discussions := 0
			for _, id := range order {
				_, c, err := Scratch(s, id, nil)
				require.NoError(t, err)
				for _, ev := range c.Events {
					if ev.Type() == model.EventDiscussionStarted {
						discussions++
					}
				}
			}
			// re-scratching after the advance changes nothing
			_, c, err := Scratch(s, order[0], nil)
			require.NoError(t, err)
			assert.Empty(t, c.Events)
			assert.Equal(t, 1, discussions)
			assert.Equal(t, model.PhaseDiscussion, s.Phase)
		})
	}

	t.Run("disconnected straggler triggers refresh instead of advance", func(t *testing.T) {
		s := newRound(t, 3, 0)
		online := map[string]bool{"p0": true, "p1": true}
		_, _, err := Scratch(s, "p0", online)
		require.NoError(t, err)
		_, c, err := Scratch(s, "p1", online)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseScratching, s.Phase)
		assert.Contains(t, eventTypes(c), model.EventForceRefresh)

		_, c, err = Scratch(s, "p2", online)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseDiscussion, s.Phase)
		assert.Contains(t, eventTypes(c), model.EventDiscussionStarted)
	})

	t.Run("wrong phase", func(t *testing.T) {
		s := newLobby(t, 3)
		_, _, err := Scratch(s, "p1", nil)
		assert.ErrorIs(t, err, ErrWrongPhase)
	})
}

func TestStartVoting(t *testing.T) {
	rules := DefaultRules()

	t.Run("from discussion", func(t *testing.T) {
		s := newRound(t, 3, 0)
		toDiscussion(t, s)
		c, err := StartVoting(s, rules, "p0", 0, false, t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseVoting, s.Phase)
		require.NotNil(t, s.VotingDeadline)
		assert.Equal(t, t0.Add(120*time.Second), *s.VotingDeadline)
		assert.Equal(t, 120, *s.VotingTimeoutSeconds)
		assert.Equal(t, []model.EventType{model.EventVotingStarted}, eventTypes(c))
	})

	t.Run("timeout is clamped", func(t *testing.T) {
		s := newRound(t, 3, 0)
		toDiscussion(t, s)
		_, err := StartVoting(s, rules, "p0", 5, false, t0)
		require.NoError(t, err)
		assert.Equal(t, 30, *s.VotingTimeoutSeconds)
		assert.Equal(t, 180, rules.VotingTimeout(600))
	})

	t.Run("force skips scratching", func(t *testing.T) {
		s := newRound(t, 3, 0)
		_, err := StartVoting(s, rules, "p0", 60, false, t0)
		assert.ErrorIs(t, err, ErrWrongPhase)
		assert.Equal(t, model.PhaseCardsDealt, s.Phase)

		c, err := StartVoting(s, rules, "p0", 60, true, t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseVoting, s.Phase)
		assert.True(t, c.Events[0].(model.VotingStarted).Forced)
	})

	t.Run("host only", func(t *testing.T) {
		s := newRound(t, 3, 0)
		toDiscussion(t, s)
		_, err := StartVoting(s, rules, "p1", 60, false, t0)
		assert.ErrorIs(t, err, ErrNotHost)
	})
}

func votingRound(t *testing.T, n, imp, timeout int) *model.Session {
	t.Helper()
	s := newRound(t, n, imp)
	toDiscussion(t, s)
	_, err := StartVoting(s, DefaultRules(), "p0", timeout, false, t0)
	require.NoError(t, err)
	return s
}

func TestCastVote(t *testing.T) {
	t.Run("second vote is ignored", func(t *testing.T) {
		s := votingRound(t, 4, 1, 60)
		r, _, err := CastVote(s, "p0", "Player1", t0.Add(time.Second))
		require.NoError(t, err)
		assert.True(t, r.Accepted)

		r, c, err := CastVote(s, "p0", "Player2", t0.Add(2*time.Second))
		require.NoError(t, err)
		assert.True(t, r.AlreadyVoted)
		assert.False(t, c.Dirty)
		require.Len(t, s.Votes, 1)
		assert.Equal(t, "p1", s.Votes[0].TargetID)
	})

	t.Run("rejects self and unknown targets", func(t *testing.T) {
		s := votingRound(t, 4, 1, 60)
		_, _, err := CastVote(s, "p0", "player0", t0)
		assert.ErrorIs(t, err, ErrSelfVote)
		_, _, err = CastVote(s, "p0", "Nobody", t0)
		assert.ErrorIs(t, err, ErrTargetNotFound)
		assert.Empty(t, s.Votes)
		assert.False(t, s.Player("p0").HasVoted)
	})

	t.Run("rejects inactive targets", func(t *testing.T) {
		s := votingRound(t, 4, 1, 60)
		_, err := Leave(s, fixedRand(0), "p3", t0)
		require.NoError(t, err)
		_, _, err = CastVote(s, "p0", "Player3", t0)
		assert.ErrorIs(t, err, ErrTargetInactive)
	})

	t.Run("everyone voted resolves", func(t *testing.T) {
		s := votingRound(t, 3, 1, 60)
		_, _, err := CastVote(s, "p0", "Player1", t0)
		require.NoError(t, err)
		_, _, err = CastVote(s, "p2", "Player1", t0)
		require.NoError(t, err)
		_, c, err := CastVote(s, "p1", "Player0", t0)
		require.NoError(t, err)

		assert.Equal(t, model.PhaseResult, s.Phase)
		assert.Equal(t, model.OutcomePlayersWin, s.Result)
		assert.Equal(t, "Player1 was the imposter and got caught", *s.EndReason)
		assert.Nil(t, s.VotingDeadline)
		ended := c.Events[len(c.Events)-1].(model.GameEnded)
		assert.Equal(t, "Player1", ended.ImpostorName)
		assert.Equal(t, []model.TallyLine{{Name: "Player1", Votes: 2}, {Name: "Player0", Votes: 1}}, ended.Tally)
	})

	t.Run("wrong accusation", func(t *testing.T) {
		s := votingRound(t, 3, 1, 60)
		for _, v := range [][2]string{{"p0", "Player2"}, {"p1", "Player2"}, {"p2", "Player0"}} {
			_, _, err := CastVote(s, v[0], v[1], t0)
			require.NoError(t, err)
		}
		assert.Equal(t, model.OutcomeImposterWins, s.Result)
		assert.Contains(t, *s.EndReason, "Player2 was wrongly accused")
	})

	t.Run("late vote resolves instead", func(t *testing.T) {
		s := votingRound(t, 3, 1, 30)
		r, c, err := CastVote(s, "p0", "Player1", t0.Add(31*time.Second))
		require.NoError(t, err)
		assert.True(t, r.Closed)
		assert.False(t, r.Accepted)
		assert.True(t, c.Dirty)
		assert.Equal(t, model.PhaseResult, s.Phase)
		assert.Empty(t, s.Votes)
	})
}

func TestCheckDeadline(t *testing.T) {
	t.Run("no votes after timeout", func(t *testing.T) {
		s := votingRound(t, 3, 2, 30)

		c := CheckDeadline(s, t0.Add(29*time.Second))
		assert.False(t, c.Dirty)
		assert.Equal(t, model.PhaseVoting, s.Phase)

		c = CheckDeadline(s, t0.Add(31*time.Second))
		assert.True(t, c.Dirty)
		assert.Equal(t, model.PhaseResult, s.Phase)
		assert.Equal(t, model.OutcomeImposterWins, s.Result)
		assert.Contains(t, *s.EndReason, "No one was accused")
		for _, p := range s.ActivePlayers() {
			assert.True(t, p.HasVoted, p.Name)
		}
	})

	t.Run("silent players do not count", func(t *testing.T) {
		s := votingRound(t, 4, 2, 30)
		_, _, err := CastVote(s, "p0", "Player2", t0)
		require.NoError(t, err)
		CheckDeadline(s, t0.Add(time.Minute))
		assert.Equal(t, model.OutcomePlayersWin, s.Result)
		assert.Equal(t, []model.TallyEntry{{PlayerID: "p2", Votes: 1}}, s.Tally)
	})

	t.Run("noop outside voting", func(t *testing.T) {
		s := newRound(t, 3, 0)
		assert.Equal(t, Change{}, CheckDeadline(s, t0.Add(time.Hour)))
	})
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name  string
		tally []model.TallyEntry
		want  Verdict
	}{
		{"strict max is impostor", []model.TallyEntry{{PlayerID: "a", Votes: 3}, {PlayerID: "b", Votes: 1}}, Verdict{MostVotedID: "a", Outcome: model.OutcomePlayersWin}},
		{"strict max is innocent", []model.TallyEntry{{PlayerID: "b", Votes: 2}, {PlayerID: "a", Votes: 1}}, Verdict{MostVotedID: "b", Outcome: model.OutcomeImposterWins}},
		{"two-way tie", []model.TallyEntry{{PlayerID: "a", Votes: 2}, {PlayerID: "b", Votes: 2}}, Verdict{Outcome: model.OutcomeImposterWins, Tied: true}},
		{"three-way tie", []model.TallyEntry{{PlayerID: "c", Votes: 1}, {PlayerID: "a", Votes: 1}, {PlayerID: "b", Votes: 1}}, Verdict{Outcome: model.OutcomeImposterWins, Tied: true}},
		{"tie below a leader", []model.TallyEntry{{PlayerID: "b", Votes: 3}, {PlayerID: "a", Votes: 1}, {PlayerID: "c", Votes: 1}}, Verdict{MostVotedID: "b", Outcome: model.OutcomeImposterWins}},
		{"empty", nil, Verdict{Outcome: model.OutcomeImposterWins}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.tally, "a"))
		})
	}
}

func TestTiedVotesFavourImpostor(t *testing.T) {
	s := votingRound(t, 4, 3, 60)
	for _, v := range [][2]string{{"p0", "Player1"}, {"p1", "Player0"}, {"p2", "Player0"}, {"p3", "Player1"}} {
		_, _, err := CastVote(s, v[0], v[1], t0)
		require.NoError(t, err)
	}
	assert.Equal(t, model.OutcomeImposterWins, s.Result)
	assert.Contains(t, *s.EndReason, "tied")
}

func TestLeave(t *testing.T) {
	t.Run("impostor leaves during discussion", func(t *testing.T) {
		s := newRound(t, 4, 2)
		toDiscussion(t, s)
		c, err := Leave(s, fixedRand(0), "p2", t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseResult, s.Phase)
		assert.Equal(t, model.OutcomePlayersWin, s.Result)
		assert.Contains(t, *s.EndReason, "imposter left")
		assert.Contains(t, eventTypes(c), model.EventGameEnded)
		assert.False(t, s.Player("p2").IsActive)
	})

	t.Run("all innocents leave", func(t *testing.T) {
		s := newRound(t, 3, 2)
		_, err := Leave(s, fixedRand(0), "p1", t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseCardsDealt, s.Phase)
		_, err = Leave(s, fixedRand(0), "p0", t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseResult, s.Phase)
		assert.Equal(t, model.OutcomeImposterWins, s.Result)
		assert.True(t, s.Player("p2").IsHost)
		assert.Equal(t, 1, hostCount(s))
	})

	t.Run("host leaving the lobby hands over", func(t *testing.T) {
		s := newLobby(t, 3)
		c, err := Leave(s, fixedRand(1), "p0", t0)
		require.NoError(t, err)
		assert.Nil(t, s.Player("p0"), "purged in the lobby")
		assert.Equal(t, 1, hostCount(s))
		assert.Equal(t, "p2", s.HostID)
		assert.Equal(t, []model.EventType{model.EventPlayerLeft, model.EventHostChanged}, eventTypes(c))
	})

	t.Run("host leaving mid-round ends the round", func(t *testing.T) {
		s := newRound(t, 4, 3)
		_, err := Leave(s, fixedRand(0), "p0", t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseResult, s.Phase)
		assert.Equal(t, model.OutcomeNone, s.Result)
		assert.NotNil(t, s.EndReason)
		assert.Equal(t, 1, hostCount(s))
		assert.NotNil(t, s.Player("p0"), "kept inactive mid-round")
	})

	t.Run("last player leaving empties the session", func(t *testing.T) {
		s := newLobby(t, 1)
		c, err := Leave(s, fixedRand(0), "p0", t0)
		require.NoError(t, err)
		assert.True(t, c.Empty)
		assert.Equal(t, 0, hostCount(s))
	})

	t.Run("leaving twice is a noop", func(t *testing.T) {
		s := newRound(t, 4, 3)
		_, err := Leave(s, fixedRand(0), "p1", t0)
		require.NoError(t, err)
		c, err := Leave(s, fixedRand(0), "p1", t0)
		require.NoError(t, err)
		assert.False(t, c.Dirty)
	})

	t.Run("leaving unblocks scratching", func(t *testing.T) {
		s := newRound(t, 4, 3)
		for _, id := range []string{"p0", "p1", "p3"} {
			_, _, err := Scratch(s, id, nil)
			require.NoError(t, err)
		}
		_, err := Leave(s, fixedRand(0), "p2", t0)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseDiscussion, s.Phase)
	})

	t.Run("departed voter still counts", func(t *testing.T) {
		s := votingRound(t, 4, 3, 60)
		_, _, err := CastVote(s, "p1", "Player3", t0)
		require.NoError(t, err)
		_, err = Leave(s, fixedRand(0), "p1", t0)
		require.NoError(t, err)
		CheckDeadline(s, t0.Add(time.Hour))
		assert.Equal(t, model.OutcomePlayersWin, s.Result)
	})
}

func TestKick(t *testing.T) {
	t.Run("host removes a player", func(t *testing.T) {
		s := newLobby(t, 3)
		c, err := Kick(s, "p0", "player2")
		require.NoError(t, err)
		assert.Nil(t, s.Player("p2"))
		assert.Equal(t, model.PlayerKicked{Name: "Player2", PlayerCount: 2}, c.Events[0])
	})

	t.Run("host cannot be kicked", func(t *testing.T) {
		s := newLobby(t, 3)
		_, err := Kick(s, "p0", "Player0")
		assert.ErrorIs(t, err, ErrCannotKickHost)
	})

	t.Run("not the host", func(t *testing.T) {
		s := newLobby(t, 3)
		_, err := Kick(s, "p1", "Player2")
		assert.ErrorIs(t, err, ErrNotHost)
		assert.Len(t, s.Players, 3)
	})

	t.Run("lobby only", func(t *testing.T) {
		s := newRound(t, 3, 0)
		_, err := Kick(s, "p0", "Player2")
		assert.ErrorIs(t, err, ErrWrongPhase)
	})
}

func TestRestart(t *testing.T) {
	t.Run("start then restart round-trips", func(t *testing.T) {
		s := newRound(t, 3, 1)
		status, c, err := Restart(s, "p0", t0)
		require.NoError(t, err)
		assert.Equal(t, RestartLobbyOpened, status)
		assert.True(t, c.Dirty)
		assert.Equal(t, model.PhaseWaiting, s.Phase)
		assert.Nil(t, s.Word)
		assert.Nil(t, s.ImpostorID)
		assert.Empty(t, s.Votes)
	})

	t.Run("others wait for the host", func(t *testing.T) {
		s := votingRound(t, 3, 1, 30)
		CheckDeadline(s, t0.Add(time.Minute))
		require.Equal(t, model.PhaseResult, s.Phase)

		status, c, err := Restart(s, "p1", t0)
		require.NoError(t, err)
		assert.Equal(t, RestartWaitingForHost, status)
		assert.False(t, c.Dirty)

		status, _, err = Restart(s, "p0", t0)
		require.NoError(t, err)
		assert.Equal(t, RestartLobbyOpened, status)
		assert.False(t, s.Player("p1").IsInLobby)

		status, c, err = Restart(s, "p1", t0)
		require.NoError(t, err)
		assert.Equal(t, RestartJoinedLobby, status)
		assert.True(t, s.Player("p1").IsInLobby)
		assert.Equal(t, model.PlayerReturned{Name: "Player1", LobbyCount: 2}, c.Events[0])
	})

	t.Run("purges departed players", func(t *testing.T) {
		s := newRound(t, 4, 3)
		_, err := Leave(s, fixedRand(0), "p1", t0)
		require.NoError(t, err)
		_, _, err = Restart(s, "p0", t0)
		require.NoError(t, err)
		assert.Nil(t, s.Player("p1"))
	})

	t.Run("non-host cannot abort a round", func(t *testing.T) {
		s := newRound(t, 3, 1)
		_, _, err := Restart(s, "p1", t0)
		assert.ErrorIs(t, err, ErrWrongPhase)
	})
}

func TestSingleHostInvariant(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 50; trial++ {
		s := newLobby(t, 6)
		_, err := Start(s, DefaultRules(), rnd, s.HostID, testWord)
		require.NoError(t, err)
		for s.HostID != "" {
			active := s.ActivePlayers()
			victim := active[rnd.IntN(len(active))]
			switch rnd.IntN(3) {
			case 0:
				_, err = Leave(s, rnd, victim.ID, t0)
			case 1:
				_, _, err = Restart(s, s.HostID, t0)
			default:
				_, err = Kick(s, s.HostID, victim.Name)
				if KindOf(err) == KindForbidden {
					err = nil
				}
			}
			require.NoError(t, err)
			active = s.ActivePlayers()
			if len(active) == 0 {
				assert.Equal(t, 0, hostCount(s))
				break
			}
			require.Equal(t, 1, hostCount(s), "trial %d", trial)
			assert.Equal(t, s.HostID, s.Host().ID)
		}
	}
}

func TestHeartbeat(t *testing.T) {
	rules := DefaultRules()
	s := newLobby(t, 3)

	c, err := Heartbeat(s, rules, "p1", t0)
	require.NoError(t, err)
	assert.True(t, c.Dirty)

	c, err = Heartbeat(s, rules, "p1", t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.False(t, c.Dirty, "throttled")

	c, err = Heartbeat(s, rules, "p1", t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.True(t, c.Dirty)

	p := s.Player("p1")
	assert.True(t, RecentlySeen(p, rules, t0.Add(29*time.Second)))
	assert.False(t, RecentlySeen(p, rules, t0.Add(30*time.Second)))
	assert.Equal(t, map[string]bool{"p1": true}, RecentlySeenSet(s, rules, t0.Add(25*time.Second)))
}

func TestBuildViewHidesIDs(t *testing.T) {
	s := votingRound(t, 3, 1, 30)
	_, _, err := CastVote(s, "p0", "Player2", t0)
	require.NoError(t, err)

	v, err := BuildView(s, DefaultRules(), "p0")
	require.NoError(t, err)
	assert.True(t, v.IsHost)
	assert.Equal(t, "Player2", v.VotedFor)
	assert.Equal(t, "lighthouse", v.Card.Word)
	assert.Equal(t, 1, v.VotedCount)
	assert.Empty(t, v.ImpostorName)

	CheckDeadline(s, t0.Add(time.Minute))
	v, err = BuildView(s, DefaultRules(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Player1", v.ImpostorName)
	assert.Equal(t, "lighthouse", v.Word)

	_, err = BuildView(s, DefaultRules(), "stranger")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
