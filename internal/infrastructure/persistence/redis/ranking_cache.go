package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE
// ══════════════════════════════════════════════════════════════════════════════

// RankingCache implements ranking.Cache on top of Redis. One key per week,
// JSON body, TTL-bound. A miss is (nil, nil): the query layer rebuilds from
// the source and writes back.
type RankingCache struct {
	cache *Cache
}

// NewRankingCache creates a new RankingCache.
func NewRankingCache(cache *Cache) *RankingCache {
	return &RankingCache{cache: cache}
}

// GetWeek returns the cached ranking for a week, or nil on miss.
func (c *RankingCache) GetWeek(ctx context.Context, week ranking.Week) (*ranking.Ranking, error) {
	var r ranking.Ranking
	err := c.cache.Get(ctx, RankingWeekKey(week.Key()), &r)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// SetWeek stores a ranking under its week key.
func (c *RankingCache) SetWeek(ctx context.Context, r *ranking.Ranking, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLRankingCache
	}
	return c.cache.Set(ctx, RankingWeekKey(r.Week.Key()), r, ttl)
}

// InvalidateWeek drops the cached ranking for a week. Progress commands call
// this so a completion shows up in the ranking without waiting out the TTL.
func (c *RankingCache) InvalidateWeek(ctx context.Context, week ranking.Week) error {
	return c.cache.Delete(ctx, RankingWeekKey(week.Key()))
}
