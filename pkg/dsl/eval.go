// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式
// 求值，用于过滤/重排阶段的可配置业务规则。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/meeplelab/boardrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式，规则集稳定时每条只编译一次
	programs sync.Map // expr -> cel.Program
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

func compile(expr string) (cel.Program, error) {
	if v, ok := programs.Load(expr); ok {
		return v.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	programs.Store(expr, prg)
	return prg, nil
}

// Eval 是规则表达式解释器。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "popularity"
//   - 数值：item.score > 7.5 / item.score >= 5.0
//   - 逻辑：label.recall_source == "knn" && item.score > 8.0
//   - 存在性：label.recall_source != null
//   - 包含："knn" in label.recall_source 或 label.recall_source.contains("knn")
//
// 示例：
//   - `item.score < 5.0` → 预测分过低的候选
//   - `label.recall_source.contains("popularity") && item.score < 1.0` → 榜尾
//   - `rctx.scene == "cold_start" && item.score == 0.0` → 冷启动的零分项
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的解释器。编译结果按表达式全局缓存，
// 同一条规则对每个候选求值只编译一次。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 解析并执行表达式，返回布尔结果。空表达式视为 true。
// 访问不存在的 key 会报错，应使用 label.key != null 检查存在性。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}

	prg, err := compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any)
	for k, v := range e.item.Labels {
		labels[k] = map[string]any{
			"value":  v.Value,
			"source": v.Source,
		}
	}

	item := map[string]any{
		"id":       e.item.ID,
		"score":    e.item.Score,
		"features": e.item.Features,
		"meta":     e.item.Meta,
		"labels":   labels,
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx = map[string]any{
			"user_id":     e.rctx.UserID,
			"scene":       e.rctx.Scene,
			"num_ratings": len(e.rctx.Ratings),
			"params":      e.rctx.Params,
		}
	}

	// label 作为顶层访问直接取 value，规则里写 label.recall_source
	// 就够了，不必展开成 item.labels.recall_source.value
	labelAccessor := make(map[string]any)
	for k, v := range labels {
		labelAccessor[k] = v.(map[string]any)["value"]
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rctx,
	}
}
