package recall

import (
	"context"
	"fmt"
	"sort"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pkg/utils"
)

// KNN 的默认邻居参数，沿用原系统的调参结果。
const (
	DefaultK    = 40
	DefaultMinK = 5
)

// KNNWithMeans 是逐请求构造的无状态预测器（KNN-with-means）。
//
// 核心思想：对未评分的桌游，用目标用户已评分桌游中与它最相似的 k 个
// 作为邻居，以物品全局均值为基线做加权偏差平均：
//
//	est = mean(target) + Σ sim·(r - mean(neighbor)) / Σ sim
//
// 证据不足时显式退回基线，而不是从一两个邻居外推。这是设计决策，
// 不是数值巧合。
type KNNWithMeans struct {
	// Sim 是限制到目标用户相关物品的相似度查询（只读快照）。
	Sim SimLookup

	// Ratings 是目标用户的已知评分。顺序有意义：相似度并列时
	// 候选按此顺序稳定排序，保证测试夹具可复现。
	Ratings []core.Rating

	// ItemMeans 是物品全局均值表，基线预测来源。
	ItemMeans map[string]float64

	// K 为最多考虑的邻居数，<=0 时取 DefaultK。
	K int

	// MinK 为构成有效预测所需的最少正相似邻居数，<=0 时取 DefaultMinK。
	MinK int

	// MaxRating 为评分上限，<=0 时取 core.RatingMax。预测值截断到该上限；
	// 下界不截断，负向偏差保持原样（与原系统行为一致）。
	MaxRating float64
}

type knnNeighbor struct {
	sim    float64
	rating float64
	gameID string
}

// Predict 预测目标用户对 gameID 的评分。对形态良好的目录永不报错：
// 不在相似度矩阵中的候选被静默丢弃，证据不足退回物品均值。
func (p *KNNWithMeans) Predict(gameID string) float64 {
	k := p.K
	if k <= 0 {
		k = DefaultK
	}
	minK := p.MinK
	if minK <= 0 {
		minK = DefaultMinK
	}
	maxRating := p.MaxRating
	if maxRating <= 0 {
		maxRating = core.RatingMax
	}

	// 1. 候选集：目标用户评过的每款桌游与 gameID 的相似度。
	// 缺席于矩阵的 pair 直接丢弃；自身永不入选（即使相似度为 1.0）
	neighbors := make([]knnNeighbor, 0, len(p.Ratings))
	for _, r := range p.Ratings {
		if r.GameID == gameID {
			continue
		}
		sim, ok := p.Sim.Get(gameID, r.GameID)
		if !ok {
			continue
		}
		neighbors = append(neighbors, knnNeighbor{sim: sim, rating: r.Value, gameID: r.GameID})
	}

	// 2. 按相似度降序取前 k；稳定排序保证并列时维持输入顺序
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].sim > neighbors[j].sim
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}

	// 3. 基线 = 物品全局均值
	est := p.ItemMeans[gameID]

	// 4. 只累积严格正相似度的邻居
	var sumSim, sumWeighted float64
	actualK := 0
	for _, nb := range neighbors {
		if nb.sim > 0 {
			sumSim += nb.sim
			sumWeighted += nb.sim * (nb.rating - p.ItemMeans[nb.gameID])
			actualK++
		}
	}

	// 5. 正相似邻居不足 minK：丢弃整个加权和，退回均值
	if actualK < minK {
		sumWeighted = 0
	}

	// 6. sumSim 为 0 时除法被跳过（这是预期的回退分支，不是错误）
	if sumSim > 0 {
		est += sumWeighted / sumSim
	}

	// 7. 截断到评分上限；下界不截断
	if est > maxRating {
		est = maxRating
	}
	return est
}

// PredictAll 对给定的每款桌游做预测，返回未排序的映射。
// 排序与截断是调用方的责任。要求 ItemMeans 覆盖全部待预测桌游，
// 缺失说明均值快照陈旧，返回 UNKNOWN_ITEM。
func (p *KNNWithMeans) PredictAll(gameIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(gameIDs))
	for _, id := range gameIDs {
		if _, ok := p.ItemMeans[id]; !ok {
			return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeUnknownItem,
				fmt.Sprintf("recall: game %q missing from item means snapshot", id))
		}
		out[id] = p.Predict(id)
	}
	return out, nil
}

// UnratedGames 返回均值表中目标用户尚未评分的全部桌游（升序）。
func (p *KNNWithMeans) UnratedGames() []string {
	rated := make(map[string]struct{}, len(p.Ratings))
	for _, r := range p.Ratings {
		rated[r.GameID] = struct{}{}
	}
	out := make([]string, 0, len(p.ItemMeans))
	for id := range p.ItemMeans {
		if _, ok := rated[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// KNNRecall 把 KNNWithMeans 包装为召回源：预测目标用户全部未评分桌游，
// 按预测分降序返回完整排名（并列按 ID 升序，保证确定性）。
type KNNRecall struct {
	Artifacts ArtifactProvider

	K    int
	MinK int
}

func (r *KNNRecall) Name() string { return "recall.knn" }

func (r *KNNRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Artifacts == nil || rctx == nil || len(rctx.Ratings) == 0 {
		return nil, nil
	}

	sim, err := r.Artifacts.ItemSimilarity(ctx)
	if err != nil {
		return nil, err
	}
	means, err := r.Artifacts.ItemMeans(ctx)
	if err != nil {
		return nil, err
	}

	predictor := &KNNWithMeans{
		Sim:       sim,
		Ratings:   rctx.Ratings,
		ItemMeans: means,
		K:         r.K,
		MinK:      r.MinK,
	}

	targets := predictor.UnratedGames()
	predictions, err := predictor.PredictAll(targets)
	if err != nil {
		return nil, err
	}

	// targets 已升序，稳定排序后并列自动按 ID 升序
	sort.SliceStable(targets, func(i, j int) bool {
		return predictions[targets[i]] > predictions[targets[j]]
	})

	out := make([]*core.Item, 0, len(targets))
	for _, id := range targets {
		it := core.NewItem(id)
		it.Score = predictions[id]
		it.PutLabel("recall_source", utils.Label{Value: "knn", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
