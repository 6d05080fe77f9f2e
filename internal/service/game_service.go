package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"imposter/internal/cache"
	"imposter/internal/game"
	"imposter/internal/model"
)

const (
	tokenChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	tokenLen      = 6
	tokenAttempts = 10
)

// GameService runs every player action against the shared game record
type GameService struct {
	sessions  cache.SessionCache
	runner    *SessionRunner
	presence  cache.PresenceCache
	deadlines cache.DeadlineCache
	words     WordSource
	auth      *AuthService
	emitter   *Emitter
	clock     clockwork.Clock
	rules     game.Rules
	rnd       game.Rand
	codes     func() (string, error)
}

// NewGameService creates a new game service
func NewGameService(
	sessions cache.SessionCache,
	locker cache.Locker,
	presence cache.PresenceCache,
	deadlines cache.DeadlineCache,
	words WordSource,
	auth *AuthService,
	emitter *Emitter,
	clock clockwork.Clock,
	rules game.Rules,
) *GameService {
	return &GameService{
		sessions:  sessions,
		runner:    NewSessionRunner(sessions, locker),
		presence:  presence,
		deadlines: deadlines,
		words:     words,
		auth:      auth,
		emitter:   emitter,
		clock:     clock,
		rules:     rules,
		rnd:       game.SharedRand,
		codes:     generateToken,
	}
}

// SetRand replaces the source used for impostor and host selection
func (s *GameService) SetRand(rnd game.Rand) {
	s.rnd = rnd
}

// Rules returns the limits this service enforces
func (s *GameService) Rules() game.Rules {
	return s.rules
}

// Authenticate checks a player access token
func (s *GameService) Authenticate(accessToken string) (*model.PlayerClaims, error) {
	return s.auth.ValidatePlayerToken(accessToken)
}

// NormalizeToken upper-cases a user-typed game code
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// CreateGame opens a new lobby with the caller as host
func (s *GameService) CreateGame(ctx context.Context, hostName string) (*model.PlayerJoinResponse, error) {
	hostID := uuid.NewString()
	for attempts := 0; attempts < tokenAttempts; attempts++ {
		token, err := s.codes()
		if err != nil {
			return nil, err
		}

		session, err := game.NewSession(token, hostID, hostName, s.rules, s.clock.Now())
		if err != nil {
			return nil, err
		}
		created, err := s.sessions.Create(ctx, session)
		if err != nil {
			return nil, game.Unavailable("failed to save game", err)
		}
		if !created {
			continue
		}

		log.Info().Str("token", token).Msg("game created")
		return s.joinResponse(token, hostID)
	}

	return nil, fmt.Errorf("failed to generate unique game code")
}

// Join adds the caller to a lobby
func (s *GameService) Join(ctx context.Context, token, name string) (*model.PlayerJoinResponse, error) {
	token = NormalizeToken(token)
	playerID := uuid.NewString()
	now := s.clock.Now()

	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.Join(sess, s.rules, playerID, name, now)
	})
	if err != nil {
		return nil, err
	}
	return s.joinResponse(token, playerID)
}

// View returns the caller's projection of the game, resolving an overdue ballot first
func (s *GameService) View(ctx context.Context, token, playerID string) (*model.GameView, error) {
	sess, err := s.settle(ctx, token)
	if err != nil {
		return nil, err
	}
	return game.BuildView(sess, s.rules, playerID)
}

// Start deals a new round
func (s *GameService) Start(ctx context.Context, token, playerID string) error {
	// the word lookup may hit the word store, keep it outside the lock
	word := s.words.Pick(ctx)
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.Start(sess, s.rules, s.rnd, playerID, word)
	})
	return err
}

// Scratch reveals the caller's card
func (s *GameService) Scratch(ctx context.Context, token, playerID string) (*model.Card, error) {
	var card *model.Card
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		var (
			c   game.Change
			err error
		)
		card, c, err = game.Scratch(sess, playerID, s.online(ctx, sess))
		return c, err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// StartVoting opens the ballot
func (s *GameService) StartVoting(ctx context.Context, token, playerID string, timeoutSeconds int, force bool) error {
	now := s.clock.Now()
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.StartVoting(sess, s.rules, playerID, timeoutSeconds, force, now)
	})
	return err
}

// Vote casts the caller's ballot against the named player
func (s *GameService) Vote(ctx context.Context, token, playerID, targetName string) (game.VoteReceipt, error) {
	var receipt game.VoteReceipt
	now := s.clock.Now()
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		var (
			c   game.Change
			err error
		)
		receipt, c, err = game.CastVote(sess, playerID, targetName, now)
		return c, err
	})
	return receipt, err
}

// Leave removes the caller from the game
func (s *GameService) Leave(ctx context.Context, token, playerID string) error {
	now := s.clock.Now()
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.Leave(sess, s.rnd, playerID, now)
	})
	if err != nil {
		return err
	}
	if err := s.presence.Remove(ctx, NormalizeToken(token), playerID); err != nil {
		log.Warn().Err(err).Str("token", token).Msg("failed to clear presence")
	}
	return nil
}

// Kick removes a player from the lobby
func (s *GameService) Kick(ctx context.Context, token, playerID, targetName string) error {
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.Kick(sess, playerID, targetName)
	})
	return err
}

// Restart moves the caller to a fresh lobby
func (s *GameService) Restart(ctx context.Context, token, playerID string) (game.RestartStatus, error) {
	if _, err := s.settle(ctx, token); err != nil {
		return "", err
	}
	var status game.RestartStatus
	now := s.clock.Now()
	_, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		var (
			c   game.Change
			err error
		)
		status, c, err = game.Restart(sess, playerID, now)
		return c, err
	})
	return status, err
}

// Heartbeat records that the caller is still around. Throttled pings are
// answered from an unlocked read and never contend for the lock.
func (s *GameService) Heartbeat(ctx context.Context, token, playerID string) error {
	sess, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	p := sess.Player(playerID)
	if p == nil {
		return game.ErrPlayerNotFound
	}
	now := s.clock.Now()
	if !game.NeedsHeartbeat(p, s.rules, now) && !game.VotingOverdue(sess, now) {
		return nil
	}

	_, err = s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.Heartbeat(sess, s.rules, playerID, s.clock.Now())
	})
	return err
}

// CheckTimeout resolves the ballot if its deadline has passed and reports whether it did
func (s *GameService) CheckTimeout(ctx context.Context, token string) (bool, error) {
	resolved, _, err := s.resolveOverdue(ctx, token)
	return resolved, err
}

// resolveOverdue resolves the ballot if its deadline has passed. pending is
// set when the game is still voting and its deadline is not behind us yet.
func (s *GameService) resolveOverdue(ctx context.Context, token string) (resolved, pending bool, err error) {
	sess, err := s.load(ctx, token)
	if err != nil {
		return false, false, err
	}
	if sess.Phase != model.PhaseVoting {
		return false, false, nil
	}
	if !game.VotingOverdue(sess, s.clock.Now()) {
		return false, true, nil
	}
	sess, c, err := s.checkDeadline(ctx, token)
	if err != nil {
		return false, false, err
	}
	return c.Dirty, !c.Dirty && sess != nil && sess.Phase == model.PhaseVoting, nil
}

// PlayerConnected marks a live socket for the player
func (s *GameService) PlayerConnected(ctx context.Context, token, playerID string) error {
	sess, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	p := sess.Player(playerID)
	if p == nil || !p.IsActive {
		return game.ErrPlayerNotFound
	}
	if err := s.presence.Touch(ctx, sess.Token, playerID, s.clock.Now()); err != nil {
		return game.Unavailable("failed to record presence", err)
	}
	s.emitter.Emit(ctx, sess.Token, []model.Event{model.PresenceChanged{Name: p.Name, Online: true}})
	return nil
}

// Touch refreshes a live socket's presence
func (s *GameService) Touch(ctx context.Context, token, playerID string) error {
	return s.presence.Touch(ctx, NormalizeToken(token), playerID, s.clock.Now())
}

// PlayerDisconnected drops the player's socket from the roster and nudges a
// scratching phase that may now only be waiting on disconnected players
func (s *GameService) PlayerDisconnected(ctx context.Context, token, playerID string) error {
	token = NormalizeToken(token)
	if err := s.presence.Remove(ctx, token, playerID); err != nil {
		return game.Unavailable("failed to clear presence", err)
	}
	sess, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	p := sess.Player(playerID)
	if p == nil || !p.IsActive {
		return nil
	}
	s.emitter.Emit(ctx, token, []model.Event{model.PresenceChanged{Name: p.Name, Online: false}})

	if sess.Phase != model.PhaseCardsDealt && sess.Phase != model.PhaseScratching {
		return nil
	}
	_, err = s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		return game.Reevaluate(sess, s.online(ctx, sess)), nil
	})
	return err
}

// mutate runs fn under the lock, then deletes an emptied game, keeps the
// deadline index current and publishes the events
func (s *GameService) mutate(ctx context.Context, token string, fn Mutation) (*model.Session, error) {
	token = NormalizeToken(token)
	sess, c, err := s.runner.WithLock(ctx, token, fn)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Empty:
		if err := s.sessions.Delete(ctx, token); err != nil {
			log.Error().Err(err).Str("token", token).Msg("failed to delete empty game")
		}
		s.syncDeadline(ctx, token, nil)
		log.Info().Str("token", token).Msg("game closed")
	case c.Dirty:
		s.syncDeadline(ctx, token, sess)
	}

	s.emitter.Emit(ctx, token, c.Events)
	return sess, nil
}

// settle loads the game, resolving an overdue ballot first
func (s *GameService) settle(ctx context.Context, token string) (*model.Session, error) {
	sess, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	if !game.VotingOverdue(sess, s.clock.Now()) {
		return sess, nil
	}
	sess, _, err = s.checkDeadline(ctx, token)
	return sess, err
}

func (s *GameService) checkDeadline(ctx context.Context, token string) (*model.Session, game.Change, error) {
	var change game.Change
	sess, err := s.mutate(ctx, token, func(sess *model.Session) (game.Change, error) {
		change = game.CheckDeadline(sess, s.clock.Now())
		return change, nil
	})
	return sess, change, err
}

func (s *GameService) syncDeadline(ctx context.Context, token string, sess *model.Session) {
	var err error
	if sess != nil && sess.Phase == model.PhaseVoting && sess.VotingDeadline != nil {
		err = s.deadlines.Schedule(ctx, token, *sess.VotingDeadline)
	} else {
		err = s.deadlines.Unschedule(ctx, token)
	}
	if err != nil {
		log.Warn().Err(err).Str("token", token).Msg("failed to update voting index")
	}
}

// online is the set of active players with a live socket or a fresh heartbeat
func (s *GameService) online(ctx context.Context, sess *model.Session) map[string]bool {
	now := s.clock.Now()
	online := game.RecentlySeenSet(sess, s.rules, now)
	live, err := s.presence.ListOnline(ctx, sess.Token, game.ActiveIDs(sess), now)
	if err != nil {
		log.Warn().Err(err).Str("token", sess.Token).Msg("presence unavailable, using heartbeats")
		return online
	}
	for id := range live {
		online[id] = true
	}
	return online
}

func (s *GameService) load(ctx context.Context, token string) (*model.Session, error) {
	sess, err := s.sessions.Get(ctx, NormalizeToken(token))
	if err != nil {
		return nil, game.Unavailable("failed to load game", err)
	}
	if sess == nil {
		return nil, game.ErrGameNotFound
	}
	return sess, nil
}

func (s *GameService) joinResponse(token, playerID string) (*model.PlayerJoinResponse, error) {
	access, err := s.auth.GeneratePlayerToken(token, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return &model.PlayerJoinResponse{
		Token:       token,
		PlayerID:    playerID,
		AccessToken: access,
	}, nil
}

// generateToken draws a random 6-char game code
func generateToken() (string, error) {
	b := make([]byte, tokenLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	code := make([]byte, tokenLen)
	for i := range code {
		code[i] = tokenChars[int(b[i])%len(tokenChars)]
	}
	return string(code), nil
}
