package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDistanceCache is a read-through hot tier in front of a persistent
// DistanceStore. The persistent store stays authoritative: Redis failures are
// logged and fall through, and hit counters are only kept in the backing store.
type RedisDistanceCache struct {
	Client  *redis.Client
	TTL     time.Duration
	Backing ports.DistanceStore
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration, backing ports.DistanceStore) *RedisDistanceCache {
	return &RedisDistanceCache{Client: client, TTL: ttl, Backing: backing}
}

func redisKey(fromID, toID string, profile domain.TravelProfile) string {
	return fmt.Sprintf("distance:%s:%s:%s", fromID, toID, profile)
}

type redisEntry struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	DistanceText    string `json:"distance_text"`
	DurationText    string `json:"duration_text"`
}

func (c *RedisDistanceCache) GetDistance(
	ctx context.Context,
	fromID string,
	toID string,
	profile domain.TravelProfile,
) (*domain.DistanceEntry, bool, error) {
	key := redisKey(fromID, toID, profile)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var re redisEntry
		if jerr := json.Unmarshal(raw, &re); jerr == nil {
			return &domain.DistanceEntry{
				FromID:  fromID,
				ToID:    toID,
				Profile: profile,
				Leg: domain.Leg{
					DistanceMeters:  re.DistanceMeters,
					DurationSeconds: re.DurationSeconds,
					DistanceText:    re.DistanceText,
					DurationText:    re.DurationText,
				},
			}, true, nil
		}
		obs.Logger(ctx).WithField("key", key).Warn("redis distance entry unreadable, falling through")
	case errors.Is(err, redis.Nil):
	default:
		obs.Logger(ctx).WithError(err).Warn("redis distance get failed, falling through")
	}

	e, ok, err := c.Backing.GetDistance(ctx, fromID, toID, profile)
	if err != nil || !ok {
		return e, ok, err
	}

	c.warm(ctx, *e)
	return e, true, nil
}

func (c *RedisDistanceCache) PutDistance(ctx context.Context, e domain.DistanceEntry) error {
	if err := c.Backing.PutDistance(ctx, e); err != nil {
		return err
	}
	c.warm(ctx, e)
	return nil
}

func (c *RedisDistanceCache) IncrementHits(ctx context.Context, fromID, toID string, profile domain.TravelProfile) error {
	return c.Backing.IncrementHits(ctx, fromID, toID, profile)
}

func (c *RedisDistanceCache) warm(ctx context.Context, e domain.DistanceEntry) {
	b, err := json.Marshal(redisEntry{
		DistanceMeters:  e.DistanceMeters,
		DurationSeconds: e.DurationSeconds,
		DistanceText:    e.DistanceText,
		DurationText:    e.DurationText,
	})
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, redisKey(e.FromID, e.ToID, e.Profile), b, c.TTL).Err(); err != nil {
		obs.Logger(ctx).WithError(err).Warn("redis distance set failed")
	}
}
