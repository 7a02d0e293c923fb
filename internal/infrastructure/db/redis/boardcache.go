package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Board ids are immutable once assigned, so the TTL only bounds memory use.
const boardIDTTL = 24 * time.Hour

// BoardIDCache caches (kind, owner) → board id lookups.
// Key format: board:<owner>:<kind>
type BoardIDCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewBoardIDCache(client *redis.Client, log zerolog.Logger) *BoardIDCache {
	return &BoardIDCache{client: client, log: log}
}

// Get returns the cached board id. A cache miss or Redis error reads as a
// miss; the caller falls through to the database.
func (c *BoardIDCache) Get(ctx context.Context, kind, owner string) (string, bool) {
	id, err := c.client.Get(ctx, c.key(kind, owner)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Msg("board cache read failed")
		}
		return "", false
	}
	return id, true
}

// Set records a board id. Failures are logged and otherwise ignored.
func (c *BoardIDCache) Set(ctx context.Context, kind, owner, id string) {
	if err := c.client.Set(ctx, c.key(kind, owner), id, boardIDTTL).Err(); err != nil {
		c.log.Warn().Err(err).Msg("board cache write failed")
	}
}

func (c *BoardIDCache) key(kind, owner string) string {
	return fmt.Sprintf("board:%s:%s", owner, kind)
}
