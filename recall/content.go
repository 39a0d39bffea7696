package recall

import (
	"context"
	"sort"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/pkg/utils"
	"github.com/meeplelab/boardrec/similarity"
)

// DefaultTopTags 表示偏好画像只保留类别/机制各前 4 个标签。
const DefaultTopTags = 4

// ContentSimilarity 基于内容特征做召回：把目标用户评分最高的桌游的
// 特征向量取均值，合成一条偏好画像，再拿画像与目录里每款未评分
// 桌游算加权余弦。冷启动友好，只要用户有一条评分就能工作，
// 不依赖其他用户。
type ContentSimilarity struct {
	// Table 为只读特征表快照。
	Table *feature.Table

	// Weights 为特征组权重；零值时取 feature.DefaultWeights。
	Weights feature.Weights

	// TopTags 为画像保留的类别/机制标签数上限，<=0 时取 DefaultTopTags。
	// 均值画像里几十个标签都有非零值，全保留会稀释信号；
	// 只留最强的几个标签才能刻画口味。
	TopTags int
}

type contentCandidate struct {
	gameID string
	score  float64
}

// Rank 给出目录中全部未评分桌游的完整排名（包含零分/负分，
// 截断交给下游）。用户的最高分桌游均不在特征表中时返回空结果。
func (c *ContentSimilarity) Rank(ratings []core.Rating) []contentCandidate {
	if c.Table == nil || c.Table.Len() == 0 || len(ratings) == 0 {
		return nil
	}
	topTags := c.TopTags
	if topTags <= 0 {
		topTags = DefaultTopTags
	}
	weights := c.Weights
	if weights == (feature.Weights{}) {
		weights = feature.DefaultWeights
	}

	// 画像原料 = 用户评到自己最高分的那批桌游
	var maxRating float64
	for _, r := range ratings {
		if r.Value > maxRating {
			maxRating = r.Value
		}
	}
	schema := c.Table.Schema
	profile := make([]float64, schema.Dim())
	count := 0
	for _, r := range ratings {
		if r.Value != maxRating {
			continue
		}
		vec, ok := c.Table.Vector(r.GameID)
		if !ok {
			continue
		}
		for i, v := range vec {
			profile[i] += v
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range profile {
		profile[i] /= float64(count)
	}

	// 画像只保留最强的 topTags 个类别与机制
	maskTopTags(profile, schema, topTags)

	// 目录全表 + 画像一起做数值列归一化，保证画像与真实桌游同量纲。
	// 行要复制，Table 是共享的只读快照。
	ids := c.Table.IDs()
	rows := make([][]float64, 0, len(ids)+1)
	rowOf := make(map[string][]float64, len(ids))
	for _, id := range ids {
		vec, _ := c.Table.Vector(id)
		cp := make([]float64, len(vec))
		copy(cp, vec)
		rows = append(rows, cp)
		rowOf[id] = cp
	}
	rows = append(rows, profile)
	feature.NormalizeNumericColumns(rows)

	rated := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		rated[r.GameID] = struct{}{}
	}

	spread := weights.Spread(schema)
	out := make([]contentCandidate, 0, len(ids))
	for _, id := range ids {
		if _, ok := rated[id]; ok {
			continue
		}
		out = append(out, contentCandidate{
			gameID: id,
			score:  similarity.WeightedCosine(profile, rowOf[id], spread),
		})
	}

	// ids 已升序，稳定排序后并列自动按 ID 升序
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	return out
}

// maskTopTags 把画像向量的类别区段与机制区段分别做 min-rank 截断：
// 值并列的列共享最小名次，保留的列统一置 1，名次超出 topTags 或
// 值为 0 的列清零。min-rank 意味着并列的标签要么一起保留、要么一起
// 淘汰；置 1 保证画像标签与目录的 one-hot 同量纲，均值大小只决定
// 去留，不再渗入相似度。
func maskTopTags(profile []float64, s *feature.Schema, topTags int) {
	start, end := s.CategoryRange()
	maskSegment(profile, start, end, topTags)
	start, end = s.MechanicRange()
	maskSegment(profile, start, end, topTags)
}

func maskSegment(vec []float64, start, end, topTags int) {
	// 先在原值快照上定名次，再统一写回，避免边写边比
	orig := make([]float64, end-start)
	copy(orig, vec[start:end])
	for i, v := range orig {
		if v == 0 {
			continue
		}
		// min-rank = 1 + 严格更大的列数
		rank := 1
		for _, w := range orig {
			if w > v {
				rank++
			}
		}
		if rank > topTags {
			vec[start+i] = 0
		} else {
			vec[start+i] = 1
		}
	}
}

// ContentRecall 把 ContentSimilarity 包装为召回源。
type ContentRecall struct {
	Features FeatureProvider

	Weights feature.Weights
	TopTags int
}

func (r *ContentRecall) Name() string { return "recall.content" }

func (r *ContentRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Features == nil || rctx == nil || len(rctx.Ratings) == 0 {
		return nil, nil
	}
	table, err := r.Features.FeatureTable(ctx)
	if err != nil {
		return nil, err
	}

	ranker := &ContentSimilarity{Table: table, Weights: r.Weights, TopTags: r.TopTags}
	ranked := ranker.Rank(rctx.Ratings)

	out := make([]*core.Item, 0, len(ranked))
	for _, c := range ranked {
		it := core.NewItem(c.gameID)
		it.Score = c.score
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
