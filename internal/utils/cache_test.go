package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	ctx := context.Background()

	var got map[string]int
	found, err := GetCache(ctx, rdb, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetCache(ctx, rdb, "k", map[string]int{"a": 1}, time.Minute))
	found, err = GetCache(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["a"])

	require.NoError(t, DeleteCache(ctx, rdb, "k"))
	assert.False(t, srv.Exists("k"))
}

func TestDeleteByPrefix(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	ctx := context.Background()

	for _, k := range []string{"txhistory:user:1:page:1:size:20", "txhistory:user:1:page:2:size:20", "txhistory:user:12:page:1:size:20"} {
		require.NoError(t, srv.Set(k, "{}"))
	}

	require.NoError(t, DeleteByPrefix(ctx, rdb, "txhistory:user:1:"))
	assert.False(t, srv.Exists("txhistory:user:1:page:1:size:20"))
	assert.False(t, srv.Exists("txhistory:user:1:page:2:size:20"))
	assert.True(t, srv.Exists("txhistory:user:12:page:1:size:20"))
}

func TestNilClientIsEmptyCache(t *testing.T) {
	ctx := context.Background()
	var dest string
	found, err := GetCache(ctx, nil, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetCache(ctx, nil, "k", "v", time.Second))
	assert.NoError(t, DeleteByPrefix(ctx, nil, "k"))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.01, RoundMoney(10.006))
	assert.Equal(t, 2.5, RoundMoney(2.499999))
	assert.Equal(t, 7.5, Percent(30, 25))
	assert.Equal(t, 0.33, Percent(1, 33.333))
}
