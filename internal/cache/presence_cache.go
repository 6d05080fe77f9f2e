package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache is the live-connection roster of a game. Members are player
// ids scored by the last time their socket was seen.
type PresenceCache interface {
	Touch(ctx context.Context, token, playerID string, at time.Time) error
	Remove(ctx context.Context, token, playerID string) error
	// ListOnline reports which of ids have been seen within the stale window
	ListOnline(ctx context.Context, token string, ids []string, now time.Time) (map[string]bool, error)
}

type presenceCache struct {
	client *redis.Client
	stale  time.Duration
	ttl    time.Duration
}

// NewPresenceCache creates a presence roster; entries older than stale count as offline
func NewPresenceCache(client *redis.Client, stale, ttl time.Duration) PresenceCache {
	return &presenceCache{
		client: client,
		stale:  stale,
		ttl:    ttl,
	}
}

func presenceKey(token string) string {
	return fmt.Sprintf("game:%s:online", token)
}

func (c *presenceCache) Touch(ctx context.Context, token, playerID string, at time.Time) error {
	key := presenceKey(token)
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: playerID,
	})
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *presenceCache) Remove(ctx context.Context, token, playerID string) error {
	return c.client.ZRem(ctx, presenceKey(token), playerID).Err()
}

func (c *presenceCache) ListOnline(ctx context.Context, token string, ids []string, now time.Time) (map[string]bool, error) {
	online := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return online, nil
	}
	from := strconv.FormatInt(now.Add(-c.stale).UnixMilli(), 10)
	members, err := c.client.ZRangeByScore(ctx, presenceKey(token), &redis.ZRangeBy{
		Min: from,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, m := range members {
		if wanted[m] {
			online[m] = true
		}
	}
	return online, nil
}
