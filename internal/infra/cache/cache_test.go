package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"florist/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisが無い環境ではskip
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skip("Skipping redis test: redis not available")
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart_42", cartKey(42))
}

func TestCartCache_SetGetDelete(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	c := NewCartCache(rdb, time.Minute)
	userID := time.Now().UnixNano()
	t.Cleanup(func() { _ = c.Delete(ctx, userID) })

	//初回はミス
	_, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	items := []model.CartItem{{ID: 1, UserID: userID, ProductID: 7, Quantity: 2}}
	require.NoError(t, c.Set(ctx, userID, items))

	got, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Quantity)

	//空のカートもヒットとして扱う
	require.NoError(t, c.Set(ctx, userID, nil))
	got, ok, err = c.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)

	require.NoError(t, c.Delete(ctx, userID))
	_, ok, err = c.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGameStore_ClaimOncePerDay(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	s := NewGameStore(rdb)
	userID := time.Now().UnixNano()
	day := "2026-02-14"
	t.Cleanup(func() { _ = rdb.Del(ctx, gameKey(userID, day)).Err() })

	first := model.GameResult{Won: true, Attempts: 1, CouponCode: "TRUELOVE100", PlayedOn: day}
	ok, err := s.Claim(ctx, userID, day, first, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	//2回目は保存されず、最初の結果が残る
	ok, err = s.Claim(ctx, userID, day, model.GameResult{CouponCode: "ALMOSTLOVE5"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, found, err := s.Find(ctx, userID, day)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "TRUELOVE100", got.CouponCode)
}
