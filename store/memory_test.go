package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplelab/boardrec/core"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	// 1 秒 TTL：写入后立即可读
	require.NoError(t, s.Set(ctx, "cached", []byte("result"), 1))
	_, err := s.Get(ctx, "cached")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = s.Get(ctx, "cached")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStoreBatch(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.BatchSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}))

	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []byte("1"), got["a"])
	// 缺失的 key 静默跳过，不报错
	_, ok := got["missing"]
	assert.False(t, ok)
}

func TestMemoryStoreZSetLeaderboard(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.ZAdd(ctx, "popularity", 2.0, "catan"))
	require.NoError(t, s.ZAdd(ctx, "popularity", 0.5, "niche"))
	require.NoError(t, s.ZAdd(ctx, "popularity", 1.2, "wingspan"))

	top, err := s.ZRange(ctx, "popularity", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"catan", "wingspan"}, top)

	all, err := s.ZRange(ctx, "popularity", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"catan", "wingspan", "niche"}, all)

	score, err := s.ZScore(ctx, "popularity", "catan")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, score, 1e-9)

	_, err = s.ZScore(ctx, "popularity", "ghost")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStoreZRangeTieDeterministic(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.ZAdd(ctx, "z", 1.0, "b"))
	require.NoError(t, s.ZAdd(ctx, "z", 1.0, "a"))

	for i := 0; i < 5; i++ {
		got, err := s.ZRange(ctx, "z", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.HSet(ctx, "means", "catan", []byte("7.2")))
	require.NoError(t, s.HSet(ctx, "means", "wingspan", []byte("8.1")))

	v, err := s.HGet(ctx, "means", "catan")
	require.NoError(t, err)
	assert.Equal(t, []byte("7.2"), v)

	all, err := s.HGetAll(ctx, "means")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []byte("8.1"), all["wingspan"])

	_, err = s.HGet(ctx, "means", "ghost")
	assert.True(t, core.IsStoreNotFound(err))
}
