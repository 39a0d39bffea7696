package recall

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pipeline"
)

// DefaultMinRatingsForCF 表示评分数达到 3 条才启用协同过滤。
// 一两条评分撑不起邻居选取，协同过滤的输出会退化成噪声。
const DefaultMinRatingsForCF = 3

// Gate 按目标用户的评分数选择参与召回的策略，再委托 Fanout 并发执行：
//
//	0 条评分        → 只出热度榜（冷启动）
//	1 ~ (minCF-1) 条 → 热度 + 内容（内容推荐一条评分即可工作）
//	>= minCF 条      → 全部策略
//
// 被跳过的策略完全不执行，省掉注定无效的矩阵/邻居计算。
type Gate struct {
	// 四类召回源按优先级排列；为 nil 的槽位自动跳过。
	KNN        Source
	UserCF     Source
	Content    Source
	Popularity Source

	// MinRatingsForCF 为启用协同过滤的评分数门槛，<=0 时取
	// DefaultMinRatingsForCF。
	MinRatingsForCF int

	Dedup         bool
	Timeout       time.Duration
	MaxConcurrent int
	MergeStrategy string
	Logger        zerolog.Logger
}

func (g *Gate) Name() string        { return "recall.gate" }
func (g *Gate) Kind() pipeline.Kind { return pipeline.KindRecall }

// Select 返回当前请求应执行的召回源（按优先级有序）。
func (g *Gate) Select(rctx *core.RecommendContext) []Source {
	minCF := g.MinRatingsForCF
	if minCF <= 0 {
		minCF = DefaultMinRatingsForCF
	}

	numRatings := 0
	if rctx != nil {
		numRatings = len(rctx.Ratings)
	}

	var out []Source
	appendSource := func(s Source) {
		if s != nil {
			out = append(out, s)
		}
	}
	if numRatings >= minCF {
		appendSource(g.KNN)
		appendSource(g.UserCF)
	}
	if numRatings >= 1 {
		appendSource(g.Content)
	}
	appendSource(g.Popularity)
	return out
}

func (g *Gate) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sources := g.Select(rctx)
	if len(sources) == 0 {
		return nil, nil
	}
	g.Logger.Debug().
		Int("sources", len(sources)).
		Msg("recall gate selected sources")

	fanout := &Fanout{
		Sources:       sources,
		Dedup:         g.Dedup,
		Timeout:       g.Timeout,
		MaxConcurrent: g.MaxConcurrent,
		MergeStrategy: g.MergeStrategy,
		Logger:        g.Logger,
	}
	return fanout.Process(ctx, rctx, items)
}
