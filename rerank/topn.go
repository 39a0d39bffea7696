package rerank

import (
	"context"
	"sort"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pipeline"
)

// DefaultTopN 是推荐结果的默认截断长度。
const DefaultTopN = 50

// TopNNode 对候选做全局排序后截取前 N 个。
// fan-out 合并多路召回后各路内部有序、整体无序，
// 这里是唯一一次全局排序。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        gate,                     // 召回
//	        &filter.FilterNode{...},  // 过滤
//	        &rerank.TopNNode{N: 20},  // 排序 + 截断
//	    },
//	}
type TopNNode struct {
	// N 为保留的桌游数量，<=0 时取 DefaultTopN。
	N int
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	topN := n.N
	if topN <= 0 {
		topN = DefaultTopN
	}

	// 分数降序，并列按 ID 升序，输出确定
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	if len(items) <= topN {
		return items, nil
	}
	return items[:topN], nil
}
