package rerank

import (
	"context"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pipeline"
)

// Diversity 是一个简单的多样性重排：按主类别去重，每个类别只保留
// 排名最靠前的一款。推荐页连出五款同类桌游的观感很差，
// 即使它们的预测分都名列前茅。
//
// 类别来源优先级：
//   - label["category"].Value
//   - meta["category"] (string)
//
// 没有类别信息的候选原样保留。
type Diversity struct {
	LabelKey string // 默认 "category"
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "category"
	}

	seen := make(map[string]bool, 32)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}

		category := ""
		if it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				category = lbl.Value
			}
		}
		if category == "" && it.Meta != nil {
			if v, ok := it.Meta[key]; ok {
				if s, ok := v.(string); ok {
					category = s
				}
			}
		}

		if category == "" {
			out = append(out, it)
			continue
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		out = append(out, it)
	}
	return out, nil
}
