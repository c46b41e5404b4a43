package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

func TestRedisCacheJSON(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewRedisFromURL("redis://" + srv.Addr() + "/0")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	_, ok, err := GetJSON[[]entry](ctx, c, "categories:all")
	require.NoError(t, err)
	assert.False(t, ok)

	want := []entry{{Name: "Dining", Order: 1}, {Name: "Travel", Order: 2}}
	require.NoError(t, SetJSON(ctx, c, "categories:all", want, time.Minute))

	got, ok, err := GetJSON[[]entry](ctx, c, "categories:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	srv.FastForward(2 * time.Minute)
	_, ok, err = GetJSON[[]entry](ctx, c, "categories:all")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheDelete(t *testing.T) {
	srv := miniredis.RunT(t)
	c := NewRedis(srv.Addr(), "", 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptEntryIsMiss(t *testing.T) {
	srv := miniredis.RunT(t)
	c := NewRedis(srv.Addr(), "", 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("{not json"), 0))
	_, ok, err := GetJSON[entry](ctx, c, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopCache(t *testing.T) {
	c := NewNoop()
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, c, "k", entry{Name: "x"}, time.Minute))
	_, ok, err := GetJSON[entry](ctx, c, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDeletePrefix(t *testing.T) {
	srv := miniredis.RunT(t)
	c := NewRedis(srv.Addr(), "", 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, Key("categories", "all"), []byte("[]"), 0))
	require.NoError(t, c.Set(ctx, Key("categories", "c1"), []byte("{}"), 0))
	require.NoError(t, c.Set(ctx, Key("vendors", "all"), []byte("[]"), 0))

	require.NoError(t, c.DeletePrefix(ctx, "categories:"))
	assert.False(t, srv.Exists("categories:all"))
	assert.False(t, srv.Exists("categories:c1"))
	assert.True(t, srv.Exists("vendors:all"))

	require.NoError(t, c.DeletePrefix(ctx, "categories:"))
	require.NoError(t, NewNoop().DeletePrefix(ctx, "categories:"))
}
