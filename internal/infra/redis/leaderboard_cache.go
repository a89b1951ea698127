package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

const (
	versionKey = "leaderboard:version"
	pageKeyFmt = "leaderboard:v%d:top:%d"
)

// LeaderboardCache stores ranked pages as JSON snapshots keyed by a version
// counter. Invalidation bumps the counter, orphaning every cached page at
// once; stale pages expire through their TTL.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get returns the cached page for the given limit, if present.
func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]entities.RankedUser, bool, error) {
	key, err := c.pageKey(ctx, limit)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leaderboard cache get: %w", err)
	}

	var entries []entities.RankedUser
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("leaderboard cache decode: %w", err)
	}

	return entries, true, nil
}

// Set stores the page for the given limit under the current version.
func (c *LeaderboardCache) Set(ctx context.Context, limit int, entries []entities.RankedUser) error {
	key, err := c.pageKey(ctx, limit)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("leaderboard cache encode: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("leaderboard cache set: %w", err)
	}
	return nil
}

// Invalidate bumps the version counter, detaching all cached pages.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("leaderboard cache invalidate: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) pageKey(ctx context.Context, limit int) (string, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("leaderboard cache version: %w", err)
	}
	return fmt.Sprintf(pageKeyFmt, version, limit), nil
}
