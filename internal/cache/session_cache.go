package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"imposter/internal/model"
)

// SessionCache stores one JSON record per game token
type SessionCache interface {
	Get(ctx context.Context, token string) (*model.Session, error)
	Set(ctx context.Context, session *model.Session) error
	// Create stores a new game and reports false if the token is taken
	Create(ctx context.Context, session *model.Session) (bool, error)
	Delete(ctx context.Context, token string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a session cache; every Set refreshes the ttl
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("game:%s", token)
}

// Get returns nil, nil when the game does not exist
func (c *sessionCache) Get(ctx context.Context, token string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", token, err)
	}
	return &session, nil
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.Token), data, c.ttl).Err()
}

// Delete removes the game together with its presence roster
func (c *sessionCache) Delete(ctx context.Context, token string) error {
	return c.client.Del(ctx, sessionKey(token), presenceKey(token)).Err()
}

func (c *sessionCache) Create(ctx context.Context, session *model.Session) (bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return false, err
	}
	return c.client.SetNX(ctx, sessionKey(session.Token), data, c.ttl).Result()
}
