package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"imposter/internal/cache"
	"imposter/internal/game"
)

const sweepBatch = 100

// Sweeper resolves ballots whose deadline passed while nobody was polling
type Sweeper struct {
	games     *GameService
	deadlines cache.DeadlineCache
	clock     clockwork.Clock
	interval  time.Duration
}

// NewSweeper creates a new sweeper
func NewSweeper(games *GameService, deadlines cache.DeadlineCache, clock clockwork.Clock, interval time.Duration) *Sweeper {
	return &Sweeper{
		games:     games,
		deadlines: deadlines,
		clock:     clock,
		interval:  interval,
	}
}

// Run sweeps on every tick until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("voting sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("voting sweeper stopped")
			return nil
		case <-ticker.Chan():
			s.Sweep(ctx)
		}
	}
}

// Sweep resolves every overdue game once and returns how many it resolved
func (s *Sweeper) Sweep(ctx context.Context) int {
	due, err := s.deadlines.Due(ctx, s.clock.Now(), sweepBatch)
	if err != nil {
		log.Error().Err(err).Msg("failed to read voting index")
		return 0
	}

	resolved := 0
	for _, token := range due {
		ok, pending, err := s.games.resolveOverdue(ctx, token)
		switch {
		case game.KindOf(err) == game.KindBusy:
			// someone else holds the lock and will resolve it lazily; retry next tick
			continue
		case err != nil && game.KindOf(err) != game.KindNotFound:
			log.Error().Err(err).Str("token", token).Msg("failed to resolve overdue ballot")
			continue
		case ok:
			resolved++
			log.Info().Str("token", token).Msg("resolved overdue ballot")
			continue
		case pending:
			// still voting; the deadline has not passed at full precision
			continue
		}
		// gone or no longer voting
		if err := s.deadlines.Unschedule(ctx, token); err != nil {
			log.Warn().Err(err).Str("token", token).Msg("failed to update voting index")
		}
	}
	return resolved
}
