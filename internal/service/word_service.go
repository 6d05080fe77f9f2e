package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"imposter/internal/game"
	"imposter/internal/repository"
)

// WordSource hands out the secret word for a new round
type WordSource interface {
	Pick(ctx context.Context) game.Word
}

const wordLookupTimeout = 2 * time.Second

// WordService draws words from the word store and falls back to the bundled
// pack when no store is configured or it misbehaves
type WordService struct {
	repo repository.WordRepo
	rnd  game.Rand
}

// NewWordService creates a word service; repo may be nil
func NewWordService(repo repository.WordRepo, rnd game.Rand) *WordService {
	return &WordService{
		repo: repo,
		rnd:  rnd,
	}
}

func (s *WordService) Pick(ctx context.Context) game.Word {
	if s.repo == nil {
		return game.PickWord(s.rnd, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, wordLookupTimeout)
	defer cancel()

	w, err := s.repo.Random(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("word store unavailable, using bundled words")
		return game.PickWord(s.rnd, nil)
	}
	return *w
}
