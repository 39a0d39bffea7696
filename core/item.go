package core

import "github.com/meeplelab/boardrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：一个候选桌游及其分数、特征、元信息与标签。
// Score 的语义由产生它的 Ranker 决定：KNN/UserCF 为 1-10 的预测评分，
// Content 为 0-1 的加权余弦相似度，Popularity 为 0-2 的综合热度分。
// 不同 Ranker 之间的分数不可直接比较。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
