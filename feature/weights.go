package feature

// Weights 是内容相似度的特征组权重。五组权重之和应为 1.0。
// 这是显式、可覆盖的配置，不是隐藏默认值，调参时直接替换整个结构体。
type Weights struct {
	Players    float64 // 玩家数（min/max 两列平分）
	Time       float64 // 时长（min/max 两列平分）
	Difficulty float64 // 难度（单列）
	Categories float64 // 类别 one-hot（列间平分）
	Mechanics  float64 // 机制 one-hot（列间平分）
}

// DefaultWeights 是原系统调参得到的权重配置。
var DefaultWeights = Weights{
	Players:    0.1,
	Time:       0.1,
	Difficulty: 0.1,
	Categories: 0.5,
	Mechanics:  0.2,
}

// Spread 把组权重按 Schema 展开成逐列的权重向量：
// 每组权重在组内列间均分，保证上百维的 one-hot 区段不会压倒数值特征。
// 空区段（如分类法里没有任何机制）权重自然为空，不参与。
func (w Weights) Spread(s *Schema) []float64 {
	out := make([]float64, s.Dim())
	out[0] = w.Players / 2
	out[1] = w.Players / 2
	out[2] = w.Time / 2
	out[3] = w.Time / 2
	out[4] = w.Difficulty

	if n := s.NumCategories(); n > 0 {
		per := w.Categories / float64(n)
		start, end := s.CategoryRange()
		for i := start; i < end; i++ {
			out[i] = per
		}
	}
	if n := s.NumMechanics(); n > 0 {
		per := w.Mechanics / float64(n)
		start, end := s.MechanicRange()
		for i := start; i < end; i++ {
			out[i] = per
		}
	}
	return out
}
