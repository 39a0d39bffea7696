package core

import "github.com/meeplelab/boardrec/pkg/utils"

// RecommendContext 承载目标用户信息，贯穿整个 Pipeline 透传。
// 引擎是输入全量物化的纯函数：目标用户的已知评分必须由调用方
// 在进入 Pipeline 之前填充到 Ratings，引擎内部不做任何 I/O 兜底。
type RecommendContext struct {
	UserID string
	Scene  string

	// Ratings 是目标用户的全部已知评分，顺序有意义：
	// KNN 的候选邻居按此顺序构建，保证同输入下结果可复现。
	Ratings []Rating

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、重度玩家、偏好重策等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（如 limit、scene 细分等）
	Params map[string]any
}

// RatingMap 把 Ratings 转为 gameID -> value 的查找表。
// 重复的 GameID 以后出现者为准，与 matrix.Build 的去重策略一致。
func (rctx *RecommendContext) RatingMap() map[string]float64 {
	m := make(map[string]float64, len(rctx.Ratings))
	for _, r := range rctx.Ratings {
		m[r.GameID] = r.Value
	}
	return m
}

// MaxRating 返回目标用户给出过的最高分；无评分时返回 0 和 false。
func (rctx *RecommendContext) MaxRating() (float64, bool) {
	if len(rctx.Ratings) == 0 {
		return 0, false
	}
	max := rctx.Ratings[0].Value
	for _, r := range rctx.Ratings[1:] {
		if r.Value > max {
			max = r.Value
		}
	}
	return max, true
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
