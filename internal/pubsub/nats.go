package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"imposter/internal/model"
)

// NATSConfig holds connection settings for the NATS bus
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS settings
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "imposter.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBus uses one subject per game, "<prefix>.<token>"
type NATSBus struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("imposter"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSBus{nc: nc, prefix: cfg.SubjectPrefix}, nil
}

func (b *NATSBus) subject(token string) string {
	return b.prefix + "." + token
}

func (b *NATSBus) Publish(ctx context.Context, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.nc.Publish(b.subject(env.Token), data); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}
	return nil
}

func (b *NATSBus) Run(ctx context.Context, h Handler) error {
	msgs := make(chan *nats.Msg, 256)
	sub, err := b.nc.ChanSubscribe(b.subject("*"), msgs)
	if err != nil {
		return fmt.Errorf("subscribe to NATS: %w", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe from NATS")
		}
	}()
	log.Info().Str("subject", b.subject("*")).Msg("relaying events from NATS")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgs:
			env, err := decode(msg.Data)
			if err != nil {
				log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping event")
				continue
			}
			h(env)
		}
	}
}

// Ping reports whether the connection is up
func (b *NATSBus) Ping() error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("NATS not connected: %s", b.nc.Status())
	}
	return nil
}

func (b *NATSBus) Close() error {
	return b.nc.Drain()
}
