package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheService(client, quietLogger()), s
}

func TestCacheKeys(t *testing.T) {
	at := time.Date(2024, 6, 29, 22, 45, 0, 0, time.UTC)

	assert.Equal(t, "fight-edge:card:abc:result", CardResultKey("abc"))
	assert.Equal(t, "fight-edge:owner:u1:runs:2024062922", RunCounterKey("u1", at))
	assert.Equal(t, "fight-edge:progress:run-1", ProgressChannel("run-1"))
}

func TestCacheService_SetGetDelete(t *testing.T) {
	cache, s := newTestCache(t)
	ctx := context.Background()

	value := models.AnalysisResult{
		Summaries:  []models.EdgeSummary{{ID: "1", FightLabel: "A vs B"}},
		Breakdowns: []models.FightBreakdown{},
	}
	require.NoError(t, cache.Set(ctx, "k", value, time.Minute))

	var got models.AnalysisResult
	require.NoError(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, value.Summaries, got.Summaries)

	s.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", value, time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestCacheService_IncrementWindow(t *testing.T) {
	cache, s := newTestCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := cache.IncrementWindow(ctx, "counter", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, time.Hour, s.TTL("counter"))

	s.FastForward(time.Hour + time.Second)
	got, err := cache.IncrementWindow(ctx, "counter", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestCacheService_PublishSubscribe(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	sub := cache.Subscribe(ctx, ProgressChannel("run-1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Publish(ctx, ProgressChannel("run-1"), models.AnalysisProgress{
		RunID: "run-1", Stage: models.StageFight, Completed: 1, Total: 3,
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var progress models.AnalysisProgress
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &progress))
	assert.Equal(t, models.StageFight, progress.Stage)
	assert.Equal(t, 1, progress.Completed)
}

func TestCacheService_Ping(t *testing.T) {
	cache, s := newTestCache(t)
	require.NoError(t, cache.Ping(context.Background()))

	s.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
