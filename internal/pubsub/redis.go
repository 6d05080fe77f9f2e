package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"imposter/internal/model"
)

// RedisBus uses one Redis channel per game, "<prefix>:<token>"
type RedisBus struct {
	client *redis.Client
	prefix string
}

func NewRedisBus(client *redis.Client, prefix string) *RedisBus {
	return &RedisBus{
		client: client,
		prefix: prefix,
	}
}

func (b *RedisBus) channel(token string) string {
	return b.prefix + ":" + token
}

func (b *RedisBus) Publish(ctx context.Context, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel(env.Token), data).Err()
}

func (b *RedisBus) Run(ctx context.Context, h Handler) error {
	sub := b.client.PSubscribe(ctx, b.channel("*"))
	defer sub.Close()

	// wait for the subscription to be confirmed before reporting readiness
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Info().Str("pattern", b.channel("*")).Msg("relaying events from redis")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := decode([]byte(msg.Payload))
			if err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping event")
				continue
			}
			h(env)
		}
	}
}

// Close is a no-op; the client is owned by the caller
func (b *RedisBus) Close() error {
	return nil
}
