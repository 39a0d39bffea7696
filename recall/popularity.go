package recall

import (
	"context"
	"sort"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pkg/utils"
)

// PopularityEntry 是一款桌游的目录级统计，由离线任务聚合。
type PopularityEntry struct {
	GameID      string  `json:"game_id"`
	RatingCount int     `json:"rating_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// PopularityScores 对目录统计算热度分：评分数与平均分各自 min-max
// 归一化到 [0,1] 后求和，总分落在 [0,2]。两个信号等权：只被十个人
// 打过满分的小众游戏，不应压过被上万人打 8 分的常青款，反之亦然。
// 退化列（全目录同值）归 0，不报错。
func PopularityScores(entries []PopularityEntry) map[string]float64 {
	if len(entries) == 0 {
		return nil
	}

	minCount, maxCount := entries[0].RatingCount, entries[0].RatingCount
	minAvg, maxAvg := entries[0].AvgRating, entries[0].AvgRating
	for _, e := range entries[1:] {
		if e.RatingCount < minCount {
			minCount = e.RatingCount
		}
		if e.RatingCount > maxCount {
			maxCount = e.RatingCount
		}
		if e.AvgRating < minAvg {
			minAvg = e.AvgRating
		}
		if e.AvgRating > maxAvg {
			maxAvg = e.AvgRating
		}
	}
	countSpan := float64(maxCount - minCount)
	avgSpan := maxAvg - minAvg

	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		var s float64
		if countSpan > 0 {
			s += float64(e.RatingCount-minCount) / countSpan
		}
		if avgSpan > 0 {
			s += (e.AvgRating - minAvg) / avgSpan
		}
		out[e.GameID] = s
	}
	return out
}

// RankByPopularity 按热度分对目录统计排序并返回新切片：分数降序，
// 并列先看评分数（人气优先），再按 ID 升序兜底。输入不被修改。
func RankByPopularity(entries []PopularityEntry) []PopularityEntry {
	scores := PopularityScores(entries)
	if scores == nil {
		return nil
	}

	out := make([]PopularityEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if scores[a.GameID] != scores[b.GameID] {
			return scores[a.GameID] > scores[b.GameID]
		}
		if a.RatingCount != b.RatingCount {
			return a.RatingCount > b.RatingCount
		}
		return a.GameID < b.GameID
	})
	return out
}

// PopularityRecall 是兜底召回源：不看用户，只按全目录热度出榜。
// 新用户（零评分）也能拿到像样的推荐。已评分的桌游会被剔除。
type PopularityRecall struct {
	Catalog CatalogProvider
}

func (r *PopularityRecall) Name() string { return "recall.popularity" }

func (r *PopularityRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	entries, err := r.Catalog.CatalogStats(ctx)
	if err != nil {
		return nil, err
	}

	ranked := RankByPopularity(entries)
	scores := PopularityScores(entries)

	var rated map[string]float64
	if rctx != nil {
		rated = rctx.RatingMap()
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, e := range ranked {
		if _, ok := rated[e.GameID]; ok {
			continue
		}
		it := core.NewItem(e.GameID)
		it.Score = scores[e.GameID]
		it.PutLabel("recall_source", utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
