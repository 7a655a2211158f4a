package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bizlookup.org/internal/obs"
)

// DefaultCacheTTL bounds staleness of cached search answers. Business
// registry data changes slowly; five minutes is well inside provider SLAs.
const DefaultCacheTTL = 5 * time.Minute

// CachedSearcher caches provider answers in Redis. A cache failure is never
// a request failure; the provider is asked directly instead.
type CachedSearcher struct {
	next Searcher
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCachedSearcher wraps next with a Redis response cache.
func NewCachedSearcher(next Searcher, rdb *redis.Client, ttl time.Duration) (*CachedSearcher, error) {
	if next == nil {
		return nil, errors.New("lookup: searcher is required")
	}
	if rdb == nil {
		return nil, errors.New("lookup: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSearcher{next: next, rdb: rdb, ttl: ttl}, nil
}

func cacheKey(query string) string {
	return "lookup:search:" + query
}

// Search answers from cache when possible, otherwise asks the provider and
// stores the answer.
func (c *CachedSearcher) Search(ctx context.Context, query string) ([]Business, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(query)).Bytes()
	switch {
	case err == nil:
		var cached []Business
		if uerr := json.Unmarshal(raw, &cached); uerr == nil {
			obs.ObserveLookupCache("hit")
			return cached, nil
		}
		// Undecodable entry, treat as a miss and overwrite below.
		obs.ObserveLookupCache("miss")
	case errors.Is(err, redis.Nil):
		obs.ObserveLookupCache("miss")
	default:
		obs.ObserveLookupCache("error")
		obs.LogEvent("warn", "lookup cache read failed", map[string]any{"error": err.Error()})
	}

	results, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if raw, merr := json.Marshal(results); merr == nil {
		if serr := c.rdb.Set(ctx, cacheKey(query), raw, c.ttl).Err(); serr != nil {
			obs.LogEvent("warn", "lookup cache write failed", map[string]any{"error": serr.Error()})
		}
	}
	return results, nil
}
