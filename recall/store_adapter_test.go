package recall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/similarity"
	"github.com/meeplelab/boardrec/store"
)

func newAdapter(t *testing.T) (*StoreAdapter, context.Context) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return NewStoreAdapter(s, "test"), context.Background()
}

func TestStoreAdapterRatingsRoundtrip(t *testing.T) {
	a, ctx := newAdapter(t)

	in := []core.Rating{
		{UserID: "u1", GameID: "g1", Value: 8, Comment: "great"},
		{UserID: "u2", GameID: "g1", Value: 6},
	}
	require.NoError(t, a.SaveRatings(ctx, in))

	out, err := a.Ratings(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	util, err := a.Utility(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, util.NumRatings())
}

func TestStoreAdapterEmptyStore(t *testing.T) {
	a, ctx := newAdapter(t)

	// 评分 key 缺失 → 空目录 → 建矩阵报 EMPTY_INPUT
	_, err := a.Utility(ctx)
	require.Error(t, err)
	assert.True(t, core.IsEmptyInput(err))

	// 工件 key 缺失 → 空快照，不报错（线上以 UNAVAILABLE 兜底）
	sim, err := a.ItemSimilarity(ctx)
	require.NoError(t, err)
	_, ok := sim.Get("a", "b")
	assert.False(t, ok)

	means, err := a.ItemMeans(ctx)
	require.NoError(t, err)
	assert.Empty(t, means)

	stats, err := a.CatalogStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestStoreAdapterSimilarityPivot(t *testing.T) {
	a, ctx := newAdapter(t)

	m := similarity.NewMatrix(similarity.AxisItem)
	m.Set("a", "b", 0.8)
	m.Set("b", "c", -0.25)
	require.NoError(t, a.SaveArtifacts(ctx, m, map[string]float64{"a": 7, "b": 6, "c": 8}))

	loaded, err := a.ItemSimilarity(ctx)
	require.NoError(t, err)

	// pivot 恢复对称语义：两个方向都命中
	v, ok := loaded.Get("a", "b")
	require.True(t, ok)
	assert.InDelta(t, 0.8, v, 1e-12)
	v, ok = loaded.Get("b", "a")
	require.True(t, ok)
	assert.InDelta(t, 0.8, v, 1e-12)

	// 负相似度原样保留（过滤正相似是预测器的职责，不是存储的）
	v, ok = loaded.Get("c", "b")
	require.True(t, ok)
	assert.InDelta(t, -0.25, v, 1e-12)

	// 未写入的 pair 缺席
	_, ok = loaded.Get("a", "c")
	assert.False(t, ok)

	means, err := a.ItemMeans(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, means["b"], 1e-12)
}

func TestStoreAdapterFeatureRoundtrip(t *testing.T) {
	a, ctx := newAdapter(t)

	schema := feature.NewSchema("v2", []string{"war", "economic"}, []string{"dice"})
	games := []feature.Game{
		{ID: "g1", MinPlayers: 2, MaxPlayers: 4, Difficulty: 3,
			Categories: []string{"war"}, Mechanics: []string{"dice"}},
	}
	require.NoError(t, a.SaveFeatures(ctx, schema, games))

	table, err := a.FeatureTable(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "v2", table.Schema.Version)
	assert.Equal(t, schema.Dim(), table.Schema.Dim())

	vec, ok := table.Vector("g1")
	require.True(t, ok)
	// 重建的 Schema 布局与原 Schema 一致
	orig := schema.Vector(games[0])
	assert.Equal(t, orig, vec)
}

func TestStoreAdapterDefaultPrefix(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	a := NewStoreAdapter(s, "")
	assert.Equal(t, DefaultKeyPrefix, a.KeyPrefix)
}
