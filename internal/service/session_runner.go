package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"imposter/internal/cache"
	"imposter/internal/game"
	"imposter/internal/model"
)

// ErrNoChange may be returned by a mutation to skip the write without failing
var ErrNoChange = errors.New("no change")

// Mutation applies a transition to the locked session
type Mutation func(s *model.Session) (game.Change, error)

// SessionRunner serializes all writes to a game behind its distributed lock
type SessionRunner struct {
	sessions cache.SessionCache
	locker   cache.Locker
}

// NewSessionRunner creates a new session runner
func NewSessionRunner(sessions cache.SessionCache, locker cache.Locker) *SessionRunner {
	return &SessionRunner{
		sessions: sessions,
		locker:   locker,
	}
}

// WithLock loads the game under its lock, applies fn and persists the result
// if it is dirty. The lock is released before returning; deleting an emptied
// game and publishing events are left to the caller.
func (r *SessionRunner) WithLock(ctx context.Context, token string, fn Mutation) (*model.Session, game.Change, error) {
	release, err := r.locker.Acquire(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrLockBusy) {
			return nil, game.Change{}, game.ErrBusy
		}
		return nil, game.Change{}, game.Unavailable("failed to lock game", err)
	}
	defer release()

	s, err := r.sessions.Get(ctx, token)
	if err != nil {
		return nil, game.Change{}, game.Unavailable("failed to load game", err)
	}
	if s == nil {
		return nil, game.Change{}, game.ErrGameNotFound
	}

	c, err := fn(s)
	if errors.Is(err, ErrNoChange) {
		return s, game.Change{}, nil
	}
	if err != nil {
		return nil, game.Change{}, err
	}

	if c.Dirty {
		if err := r.sessions.Set(ctx, s); err != nil {
			log.Error().Err(err).Str("token", token).Msg("failed to save game")
			return nil, game.Change{}, game.Unavailable("failed to save game", err)
		}
	}
	return s, c, nil
}
