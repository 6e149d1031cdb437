package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/coursedeck/coursedeck-backend/internal/logger"
)

// GroupCache memoizes a user's group id set for a short TTL. Access
// resolution tolerates sub-second staleness, so a miss on a freshly
// granted membership only lasts until the key expires.
type GroupCache interface {
	GetGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, bool)
	SetGroupIDs(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID)
	Invalidate(ctx context.Context, userID uuid.UUID)
	Close() error
}

type groupCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewGroupCache(log *logger.Logger) (GroupCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GROUP_CACHE_TTL_SECONDS")); raw != "" {
		var secs int
		if _, err := fmt.Sscanf(raw, "%d", &secs); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &groupCache{log: log.With("client", "GroupCache"), rdb: rdb, ttl: ttl}, nil
}

func groupKey(userID uuid.UUID) string {
	return "groups:user:" + userID.String()
}

func (c *groupCache) GetGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, bool) {
	raw, err := c.rdb.Get(ctx, groupKey(userID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("group cache read failed", "error", err, "user_id", userID)
		}
		return nil, false
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		c.log.Debug("group cache entry unreadable, dropping", "error", err, "user_id", userID)
		_ = c.rdb.Del(ctx, groupKey(userID)).Err()
		return nil, false
	}
	return ids, true
}

func (c *groupCache) SetGroupIDs(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) {
	if groupIDs == nil {
		groupIDs = []uuid.UUID{}
	}
	raw, err := json.Marshal(groupIDs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, groupKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.Debug("group cache write failed", "error", err, "user_id", userID)
	}
}

func (c *groupCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, groupKey(userID)).Err(); err != nil {
		c.log.Debug("group cache invalidate failed", "error", err, "user_id", userID)
	}
}

func (c *groupCache) Close() error {
	return c.rdb.Close()
}
