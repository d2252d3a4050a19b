package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisBlacklist(t *testing.T) (*RedisBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBlacklist(client), mr
}

func TestRedisBlacklist_AddContains(t *testing.T) {
	bl, mr := setupRedisBlacklist(t)
	ctx := context.Background()

	ok, err := bl.Contains(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, bl.Add(ctx, "tok-1", time.Now().Add(time.Hour)))

	ok, err = bl.Contains(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// The raw token is never used as a key.
	assert.False(t, mr.Exists(blacklistKeyPrefix+"tok-1"))
	assert.True(t, mr.Exists(tokenKey("tok-1")))
}

func TestRedisBlacklist_ExpiresWithToken(t *testing.T) {
	bl, mr := setupRedisBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "tok-1", time.Now().Add(10*time.Minute)))
	ttl := mr.TTL(tokenKey("tok-1"))
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 2)

	mr.FastForward(11 * time.Minute)
	ok, err := bl.Contains(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBlacklist_SkipsExpiredToken(t *testing.T) {
	bl, mr := setupRedisBlacklist(t)

	require.NoError(t, bl.Add(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, mr.Keys())
}

func TestRedisBlacklist_StoreDown(t *testing.T) {
	bl, mr := setupRedisBlacklist(t)
	mr.Close()

	_, err := bl.Contains(context.Background(), "tok-1")
	assert.Error(t, err)
	assert.Error(t, bl.Add(context.Background(), "tok-1", time.Now().Add(time.Hour)))
}

func TestMemoryBlacklist(t *testing.T) {
	bl := NewMemoryBlacklist()
	now := time.Now()
	bl.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "tok-1", now.Add(time.Minute)))
	require.NoError(t, bl.Add(ctx, "tok-1", now.Add(time.Minute)))
	ok, _ := bl.Contains(ctx, "tok-1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = bl.Contains(ctx, "tok-1")
	assert.False(t, ok)

	// Expired entries are swept on the next write.
	require.NoError(t, bl.Add(ctx, "tok-2", now.Add(time.Minute)))
	assert.Len(t, bl.entries, 1)
}
