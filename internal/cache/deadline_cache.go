package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const votingIndexKey = "games:voting"

// DeadlineCache indexes games with an open ballot by voting deadline
type DeadlineCache interface {
	Schedule(ctx context.Context, token string, deadline time.Time) error
	Unschedule(ctx context.Context, token string) error
	// Due returns up to limit tokens whose deadline lies in a millisecond
	// wholly before now
	Due(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type deadlineCache struct {
	client *redis.Client
}

// NewDeadlineCache creates the voting deadline index
func NewDeadlineCache(client *redis.Client) DeadlineCache {
	return &deadlineCache{
		client: client,
	}
}

func (c *deadlineCache) Schedule(ctx context.Context, token string, deadline time.Time) error {
	return c.client.ZAdd(ctx, votingIndexKey, redis.Z{
		Score:  float64(deadline.UnixMilli()),
		Member: token,
	}).Err()
}

func (c *deadlineCache) Unschedule(ctx context.Context, token string) error {
	return c.client.ZRem(ctx, votingIndexKey, token).Err()
}

func (c *deadlineCache) Due(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return c.client.ZRangeByScore(ctx, votingIndexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
}
