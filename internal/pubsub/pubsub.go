// Package pubsub carries game events between instances. Every instance
// publishes the events it commits and relays every event it receives to its
// own WebSocket clients.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"imposter/internal/model"
)

// Handler receives a decoded envelope
type Handler func(env *model.Envelope)

// Bus publishes envelopes and delivers everything published on it
type Bus interface {
	Publish(ctx context.Context, env *model.Envelope) error
	// Run delivers envelopes to h until ctx is cancelled
	Run(ctx context.Context, h Handler) error
	Close() error
}

func decode(data []byte) (*model.Envelope, error) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.Token == "" || env.Type == "" {
		return nil, fmt.Errorf("incomplete event envelope")
	}
	// only known variants with a well-formed payload reach the sockets
	if _, err := env.Decode(); err != nil {
		return nil, err
	}
	return &env, nil
}
