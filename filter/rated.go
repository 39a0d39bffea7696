package filter

import (
	"context"

	"github.com/meeplelab/boardrec/core"
)

// RatedFilter 过滤掉目标用户已经评过分的桌游。
// 各召回源通常已自行排除已评分项，这里是管道层的统一兜底：
// fan-out 合并多路来源后仍保证不把用户评过的桌游推回去。
type RatedFilter struct{}

func (f *RatedFilter) Name() string { return "filter.rated" }

func (f *RatedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || len(rctx.Ratings) == 0 {
		return false, nil
	}
	_, rated := rctx.RatingMap()[item.ID]
	return rated, nil
}
