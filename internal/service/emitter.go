package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"imposter/internal/model"
)

// Publisher delivers event envelopes to the shared event channel
type Publisher interface {
	Publish(ctx context.Context, env *model.Envelope) error
}

const publishTimeout = 3 * time.Second

// Emitter turns committed changes into envelopes. Failures are logged and
// never undo the write that produced them.
type Emitter struct {
	pub   Publisher
	clock clockwork.Clock
}

// NewEmitter creates a new emitter
func NewEmitter(pub Publisher, clock clockwork.Clock) *Emitter {
	return &Emitter{
		pub:   pub,
		clock: clock,
	}
}

// Emit publishes events for a game in order
func (e *Emitter) Emit(ctx context.Context, token string, events []model.Event) {
	if len(events) == 0 {
		return
	}
	// the request may already be finished; the write is durable either way
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	at := e.clock.Now()
	for _, ev := range events {
		env, err := model.NewEnvelope(uuid.NewString(), token, at, ev)
		if err != nil {
			log.Error().Err(err).Str("token", token).Msg("failed to encode event")
			continue
		}
		if err := e.pub.Publish(ctx, env); err != nil {
			log.Error().Err(err).
				Str("token", token).
				Str("event", string(env.Type)).
				Msg("failed to publish event")
		}
	}
}
