package cache

import (
	"context"
	"itinerary-planner-service/internal/adapters/memory"
	"itinerary-planner-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTiered(t *testing.T) (*RedisDistanceCache, *memory.DistanceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := memory.NewDistanceStore()
	return NewRedisDistanceCache(client, time.Hour, backing), backing, mr
}

func TestRedisDistanceCachePutWarmsHotTier(t *testing.T) {
	ctx := context.Background()
	c, backing, mr := newTiered(t)

	e := domain.DistanceEntry{FromID: "a", ToID: "b", Profile: domain.ProfileDriving, Leg: domain.NewLeg(1500, 600)}
	require.NoError(t, c.PutDistance(ctx, e))

	assert.True(t, mr.Exists("distance:a:b:driving"))
	assert.Equal(t, time.Hour, mr.TTL("distance:a:b:driving"))
	assert.Equal(t, 1, backing.Len())

	got, ok, err := c.GetDistance(ctx, "a", "b", domain.ProfileDriving)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1500, got.DistanceMeters)
	assert.Equal(t, "1.5km", got.DistanceText)
	assert.Equal(t, "10p", got.DurationText)
}

func TestRedisDistanceCacheReadsThroughAndWarms(t *testing.T) {
	ctx := context.Background()
	c, backing, mr := newTiered(t)

	require.NoError(t, backing.PutDistance(ctx, domain.DistanceEntry{FromID: "a", ToID: "b", Profile: domain.ProfileWalking, Leg: domain.NewLeg(300, 240)}))
	assert.False(t, mr.Exists("distance:a:b:walking"))

	got, ok, err := c.GetDistance(ctx, "a", "b", domain.ProfileWalking)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 300, got.DistanceMeters)
	assert.True(t, mr.Exists("distance:a:b:walking"))

	_, ok, err = c.GetDistance(ctx, "b", "a", domain.ProfileWalking)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDistanceCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	c, backing, mr := newTiered(t)
	require.NoError(t, backing.PutDistance(ctx, domain.DistanceEntry{FromID: "a", ToID: "b", Profile: domain.ProfileDriving, Leg: domain.NewLeg(10, 10)}))

	mr.Close()

	got, ok, err := c.GetDistance(ctx, "a", "b", domain.ProfileDriving)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, got.DistanceMeters)

	require.NoError(t, c.IncrementHits(ctx, "a", "b", domain.ProfileDriving))
	got, _, _ = backing.GetDistance(ctx, "a", "b", domain.ProfileDriving)
	assert.Equal(t, 1, got.Hits)
}
