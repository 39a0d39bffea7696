package recall

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pipeline"
	"github.com/meeplelab/boardrec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、优先级合并策略。单个召回源失败只记日志不中断：
// 四种策略天然互为降级，少一路不影响出结果。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority（优先级按 Sources 顺序）
	Logger        zerolog.Logger // 零值为 no-op，生产环境注入带 writer 的实例
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 各召回源的结果按源下标落位，合并顺序与 Sources 声明顺序一致，
	// 输出确定，不随 goroutine 完成顺序漂移
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, s := i, src

		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			start := time.Now()
			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				n.Logger.Warn().
					Str("source", s.Name()).
					Dur("elapsed", time.Since(start)).
					Err(err).
					Msg("recall source failed, skipped")
				return nil
			}
			n.Logger.Debug().
				Str("source", s.Name()).
				Int("items", len(items)).
				Dur("elapsed", time.Since(start)).
				Msg("recall source done")

			// 记录召回来源与优先级 label，方便 explain / 观测。
			// 召回源自带 recall_source 时不重复打标（避免 "knn|recall.knn"）
			for _, it := range items {
				if _, ok := it.Labels["recall_source"]; !ok {
					it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				}
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}

			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	all := make([]*core.Item, 0)
	for _, items := range results {
		all = append(all, items...)
	}

	switch n.MergeStrategy {
	case "priority":
		return n.mergeByPriority(all), nil
	case "union":
		return all, nil
	default: // "first" 或默认
		return n.mergeFirst(all), nil
	}
}

// mergeFirst 按 ID 去重，保留第一个出现的（默认策略）。
// all 已按源优先级排好序，因此第一个出现的就来自优先级最高的来源。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// mergeByPriority 与 mergeFirst 的去重规则相同，但重复 ID 取
// 各来源中分数最高者的分数，labels 合并保留全部来源痕迹。
func (n *Fanout) mergeByPriority(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		old, ok := seen[it.ID]
		if !ok {
			seen[it.ID] = it
			out = append(out, it)
			continue
		}
		if it.Score > old.Score {
			old.Score = it.Score
		}
		for k, v := range it.Labels {
			old.PutLabel(k, v)
		}
	}
	return out
}
