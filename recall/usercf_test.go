package recall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/matrix"
)

func usercfFixture(t *testing.T) *matrix.Utility {
	t.Helper()
	// u1 与 u2 口味一致，u3 相反。g3 只有邻居评过。
	util, err := matrix.Build([]core.Rating{
		{UserID: "u1", GameID: "g1", Value: 9},
		{UserID: "u1", GameID: "g2", Value: 3},
		{UserID: "u2", GameID: "g1", Value: 10},
		{UserID: "u2", GameID: "g2", Value: 4},
		{UserID: "u2", GameID: "g3", Value: 8},
		{UserID: "u3", GameID: "g1", Value: 2},
		{UserID: "u3", GameID: "g2", Value: 9},
		{UserID: "u3", GameID: "g3", Value: 2},
	})
	require.NoError(t, err)
	return util
}

func TestUserCFScoresFromNeighborMean(t *testing.T) {
	util := usercfFixture(t)
	ranker := &UserNeighborhood{TopFraction: 0.5, MinSupport: 1}

	ranked, err := ranker.Rank("u1", util)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	// 邻域 = round(2·0.5) = 1 个用户，即 u2（中心化余弦强正相关，u3 为负）。
	// g3 的分数 = u2 的原始评分 8。
	assert.Equal(t, "g3", ranked[0].gameID)
	assert.InDelta(t, 8.0, ranked[0].score, 1e-9)
	assert.Equal(t, 1, ranked[0].support)
}

func TestUserCFMinSupportZeroesButKeeps(t *testing.T) {
	util := usercfFixture(t)
	ranker := &UserNeighborhood{TopFraction: 0.5, MinSupport: 5}

	ranked, err := ranker.Rank("u1", util)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	// 支持度 1 < 5：分数置 0，但条目保留
	assert.Equal(t, "g3", ranked[0].gameID)
	assert.Zero(t, ranked[0].score)
	assert.Equal(t, 1, ranked[0].support)
}

func TestUserCFTieBrokenBySupport(t *testing.T) {
	util, err := matrix.Build([]core.Rating{
		{UserID: "t", GameID: "g1", Value: 8},
		{UserID: "t", GameID: "g2", Value: 4},
		{UserID: "a", GameID: "g1", Value: 8},
		{UserID: "a", GameID: "g2", Value: 4},
		{UserID: "a", GameID: "gx", Value: 7},
		{UserID: "a", GameID: "gy", Value: 7},
		{UserID: "b", GameID: "g1", Value: 8},
		{UserID: "b", GameID: "g2", Value: 4},
		{UserID: "b", GameID: "gy", Value: 7},
	})
	require.NoError(t, err)

	ranker := &UserNeighborhood{TopFraction: 1.0, MinSupport: 1}
	ranked, err := ranker.Rank("t", util)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// gx 与 gy 分数同为 7，gy 有 2 个邻居支持，排在前面
	assert.Equal(t, "gy", ranked[0].gameID)
	assert.Equal(t, 2, ranked[0].support)
	assert.Equal(t, "gx", ranked[1].gameID)
	assert.Equal(t, 1, ranked[1].support)
}

func TestUserCFZeroSupportKeptAtZero(t *testing.T) {
	// g3 只有 u3 评过；u1 的唯一邻居 u2 没评过它
	util, err := matrix.Build([]core.Rating{
		{UserID: "u1", GameID: "g1", Value: 9},
		{UserID: "u1", GameID: "g2", Value: 3},
		{UserID: "u2", GameID: "g1", Value: 10},
		{UserID: "u2", GameID: "g2", Value: 4},
		{UserID: "u3", GameID: "g1", Value: 2},
		{UserID: "u3", GameID: "g2", Value: 9},
		{UserID: "u3", GameID: "g3", Value: 5},
	})
	require.NoError(t, err)

	ranker := &UserNeighborhood{TopFraction: 0.5, MinSupport: 1}
	ranked, err := ranker.Rank("u1", util)
	require.NoError(t, err)

	// 邻域支持度为 0 的桌游分数置 0 但不丢弃：
	// 排名长度 = 目录数 - 已评分数 = 3 - 2
	require.Len(t, ranked, 1)
	assert.Equal(t, "g3", ranked[0].gameID)
	assert.Zero(t, ranked[0].score)
	assert.Zero(t, ranked[0].support)
}

func TestUserCFRankingIsComplete(t *testing.T) {
	util := usercfFixture(t)
	ranker := &UserNeighborhood{TopFraction: 0.5, MinSupport: 1}

	for _, userID := range util.Users() {
		ranked, err := ranker.Rank(userID, util)
		require.NoError(t, err)
		assert.Len(t, ranked, len(util.Games())-len(util.Row(userID)), "user %s", userID)
	}
}

func TestUserCFUnknownUser(t *testing.T) {
	util := usercfFixture(t)
	ranker := &UserNeighborhood{}

	ranked, err := ranker.Rank("nobody", util)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestUserCFMinGameRatingsFiltersCatalog(t *testing.T) {
	util, err := matrix.Build([]core.Rating{
		{UserID: "t", GameID: "g1", Value: 8},
		{UserID: "a", GameID: "g1", Value: 8},
		{UserID: "a", GameID: "rare", Value: 10},
	})
	require.NoError(t, err)

	ranker := &UserNeighborhood{TopFraction: 1.0, MinSupport: 1, MinGameRatings: 2}
	ranked, err := ranker.Rank("t", util)
	require.NoError(t, err)
	// rare 只有 1 条评分，被目录过滤剔除
	assert.Empty(t, ranked)
}

func TestUserCFRecallSource(t *testing.T) {
	util := usercfFixture(t)
	src := &UserCFRecall{
		Matrix:      stubUtility{util: util},
		TopFraction: 0.5,
		MinSupport:  1,
	}
	items, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "g3", items[0].ID)
	assert.Equal(t, "usercf", items[0].Labels["recall_source"].Value)
	assert.Equal(t, "1", items[0].Labels["support"].Value)
}

type stubUtility struct {
	util *matrix.Utility
}

func (s stubUtility) Utility(ctx context.Context) (*matrix.Utility, error) {
	return s.util, nil
}
