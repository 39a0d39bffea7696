// Package batch 实现离线工件的构建任务。
//
// 任务每日跑一次：从评分全量重建效用矩阵，算出物品相似度与物品
// 均值，连同目录统计一起落库，并返回可直接 Swap 进线上的快照。
package batch

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/matrix"
	"github.com/meeplelab/boardrec/recall"
	"github.com/meeplelab/boardrec/similarity"
	"github.com/meeplelab/boardrec/snapshot"
)

// Job 是一次离线构建的配置。
type Job struct {
	// Store 为工件落库后端；为 nil 时只建快照不落库（本地实验用）。
	Store core.Store

	// KeyPrefix 为存储 key 前缀，空取 recall.DefaultKeyPrefix。
	KeyPrefix string

	// MinCoRatings 为相似度的最少共同评分人数，<=0 时取
	// similarity.DefaultMinCoRatings。
	MinCoRatings int

	// MinGameRatings 为目录过滤阈值：全网评分数低于该值的桌游
	// 不进相似度计算。<=1 时不过滤。
	MinGameRatings int

	// ArtifactTTL 为工件的过期秒数，0 表示不过期。
	ArtifactTTL int

	Logger zerolog.Logger
}

// Run 执行一次完整构建。features 可为 nil（目录特征由 ETL 单独维护时，
// 快照的特征表留空，内容召回继续用旧表）。
func (j *Job) Run(
	ctx context.Context,
	ratings []core.Rating,
	schema *feature.Schema,
	games []feature.Game,
) (*snapshot.Snapshot, error) {
	start := time.Now()

	util, err := matrix.Build(ratings)
	if err != nil {
		return nil, err
	}
	if j.MinGameRatings > 1 {
		util, err = util.FilterMinRatings(j.MinGameRatings)
		if err != nil {
			return nil, err
		}
	}
	j.Logger.Info().
		Int("users", len(util.Users())).
		Int("games", len(util.Games())).
		Float64("sparsity", util.Sparsity()).
		Msg("utility matrix built")

	// 相似度与均值相互独立，并行计算
	var (
		sim   *similarity.Matrix
		means map[string]float64
	)
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		computer := &similarity.Computer{
			Axis:         similarity.AxisItem,
			MinCoRatings: j.MinCoRatings,
		}
		sim = computer.Compute(util)
		return nil
	})
	eg.Go(func() error {
		means = util.ItemMeans()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	j.Logger.Info().
		Int("pairs", sim.Len()).
		Int("item_means", len(means)).
		Dur("elapsed", time.Since(start)).
		Msg("similarity artifacts computed")

	stats := catalogStats(util)

	var table *feature.Table
	if schema != nil {
		table = feature.NewTable(schema, games)
	}

	if j.Store != nil {
		adapter := recall.NewStoreAdapter(j.Store, j.KeyPrefix)
		if err := adapter.SaveRatings(ctx, ratings, j.ArtifactTTL); err != nil {
			return nil, err
		}
		if err := adapter.SaveArtifacts(ctx, sim, means, j.ArtifactTTL); err != nil {
			return nil, err
		}
		if err := adapter.SaveCatalogStats(ctx, stats, j.ArtifactTTL); err != nil {
			return nil, err
		}
		if schema != nil {
			if err := adapter.SaveFeatures(ctx, schema, games, j.ArtifactTTL); err != nil {
				return nil, err
			}
		}
		j.Logger.Info().Str("store", j.Store.Name()).Msg("artifacts persisted")
	}

	return &snapshot.Snapshot{
		Version:   uuid.NewString(),
		BuiltAt:   time.Now(),
		ItemSim:   sim,
		ItemMeans: means,
		Features:  table,
	}, nil
}

// catalogStats 从效用矩阵聚合目录统计（评分数 + 平均分），
// 热度召回的唯一输入。结果按 GameID 升序。
func catalogStats(util *matrix.Utility) []recall.PopularityEntry {
	games := util.Games()
	out := make([]recall.PopularityEntry, 0, len(games))
	means := util.ItemMeans()
	for _, g := range games {
		count := 0
		for _, u := range util.Users() {
			if _, ok := util.Rating(u, g); ok {
				count++
			}
		}
		if count == 0 {
			continue
		}
		out = append(out, recall.PopularityEntry{
			GameID:      g,
			RatingCount: count,
			AvgRating:   means[g],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out
}
