package filter

import (
	"context"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pkg/dsl"
)

// RuleFilter 是规则过滤器：表达式求值为 true 的候选被过滤。
// 规则用 CEL 表达式写在配置里，改规则不用改代码。
//
// 示例：
//   - `item.score < 5.0` 拦掉预测分过低的候选
//   - `label.recall_source == "usercf" && item.score == 0.0`
//     拦掉支持度不足被置零的邻域推荐
type RuleFilter struct {
	// Expr 为 CEL 表达式，空表达式不过滤任何候选。
	Expr string
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}
