package pipeline

import (
	"context"

	"github.com/meeplelab/boardrec/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链（Recall → Filter → ReRank）。
// 每次 Run 都是输入的纯函数：Node 之间只通过 items 传递状态，
// 不同用户的请求可以无锁并行执行。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
