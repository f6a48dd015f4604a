package redis

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
//
// Each window keeps two keys:
//   - Sorted Set "leaderboard:points:{window}" stores userID -> points
//   - Hash "leaderboard:entry:{window}" stores userID -> Entry JSON
//
// Dense ranks are assigned by the domain at rebuild time and carried in the
// entry JSON; the sorted set only orders the fetch. After HMGet the entries
// are re-sorted by (rank, user ID) because ZREVRANGE breaks score ties in
// reverse member order.
// ══════════════════════════════════════════════════════════════════════════════

// Key patterns for leaderboard cache.
const (
	keyLeaderboardPoints = "leaderboard:points:"
	keyLeaderboardEntry  = "leaderboard:entry:"
)

// TTLLeaderboard bounds staleness between background rebuilds.
const TTLLeaderboard = 5 * time.Minute

// LeaderboardCache serves the precomputed leaderboard top from Redis.
// It implements query.LeaderboardCache.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache, ttl: TTLLeaderboard}
}

// cachedEntry is the JSON shape stored per user in the entry hash.
type cachedEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
	Points      int64  `json:"points"`
}

// GetTop returns the top limit entries of the window.
// An empty slice without an error means a cache miss.
func (l *LeaderboardCache) GetTop(ctx context.Context, window leaderboard.Window, limit int) ([]leaderboard.Entry, error) {
	if limit <= 0 {
		return []leaderboard.Entry{}, nil
	}

	pointsKey := keyLeaderboardPoints + string(window)
	entryKey := keyLeaderboardEntry + string(window)

	userIDs, err := l.cache.Client().ZRevRange(ctx, pointsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return []leaderboard.Entry{}, nil
	}

	data, err := l.cache.Client().HMGet(ctx, entryKey, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboard.Entry, 0, len(userIDs))
	for _, v := range data {
		str, ok := v.(string)
		if !ok {
			continue
		}

		var ce cachedEntry
		if err := json.Unmarshal([]byte(str), &ce); err != nil {
			continue
		}

		entries = append(entries, leaderboard.Entry{
			Rank:        ce.Rank,
			UserID:      account.UserID(ce.UserID),
			DisplayName: ce.DisplayName,
			Level:       ce.Level,
			Points:      account.Points(ce.Points),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rank != entries[j].Rank {
			return entries[i].Rank < entries[j].Rank
		}
		return entries[i].UserID < entries[j].UserID
	})

	return entries, nil
}

// Rebuild atomically replaces the window's contents.
func (l *LeaderboardCache) Rebuild(ctx context.Context, window leaderboard.Window, entries []leaderboard.Entry) error {
	pointsKey := keyLeaderboardPoints + string(window)
	entryKey := keyLeaderboardEntry + string(window)

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, pointsKey, entryKey)

	if len(entries) == 0 {
		_, err := pipe.Exec(ctx)
		return err
	}

	zMembers := make([]redis.Z, 0, len(entries))
	hashData := make(map[string]interface{}, len(entries))

	for _, e := range entries {
		zMembers = append(zMembers, redis.Z{
			Score:  float64(e.Points),
			Member: e.UserID.String(),
		})

		data, err := json.Marshal(cachedEntry{
			Rank:        e.Rank,
			UserID:      e.UserID.String(),
			DisplayName: e.DisplayName,
			Level:       e.Level,
			Points:      e.Points.Int64(),
		})
		if err != nil {
			return err
		}
		hashData[e.UserID.String()] = data
	}

	pipe.ZAdd(ctx, pointsKey, zMembers...)
	pipe.HSet(ctx, entryKey, hashData)
	pipe.Expire(ctx, pointsKey, l.ttl)
	pipe.Expire(ctx, entryKey, l.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// Count returns the total number of participants cached for the window.
// Rebuild stores the full ranking, so the sorted set cardinality is the
// participant count.
func (l *LeaderboardCache) Count(ctx context.Context, window leaderboard.Window) (int, error) {
	n, err := l.cache.Client().ZCard(ctx, keyLeaderboardPoints+string(window)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Invalidate removes cached data for a window.
func (l *LeaderboardCache) Invalidate(ctx context.Context, window leaderboard.Window) error {
	return l.cache.Delete(ctx,
		keyLeaderboardPoints+string(window),
		keyLeaderboardEntry+string(window),
	)
}
