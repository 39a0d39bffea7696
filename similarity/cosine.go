// Package similarity 实现评分向量间的（加权/中心化）余弦相似度，
// 以及批量构建对称相似度矩阵的 Computer。
package similarity

import "math"

// Cosine 计算两个稠密向量的余弦相似度 sim = dot(x,y) / (‖x‖·‖y‖)。
//
// 任一向量范数为 0 时返回 0。这是契约而不是兜底：下游的邻居选取把 0
// 视作无信息，而不是错误，因此这里永远不会产出 NaN。
// 长度不一致视为无信息，同样返回 0。
func Cosine(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	var dot, normX, normY float64
	for i := range x {
		dot += x[i] * y[i]
		normX += x[i] * x[i]
		normY += y[i] * y[i]
	}
	if normX == 0 || normY == 0 {
		return 0
	}
	return dot / (math.Sqrt(normX) * math.Sqrt(normY))
}

// WeightedCosine 先把两个向量逐维乘以 weights，再计算余弦相似度。
// 注意权重作用在两个向量上，因此在点积里以平方生效。这是内容推荐
// 刻意选择的口径，保证没有任何一组特征（如上百维的类别 one-hot）
// 压倒数值特征。
func WeightedCosine(x, y, weights []float64) float64 {
	if len(x) != len(y) || len(x) != len(weights) || len(x) == 0 {
		return 0
	}
	var dot, normX, normY float64
	for i := range x {
		wx := x[i] * weights[i]
		wy := y[i] * weights[i]
		dot += wx * wy
		normX += wx * wx
		normY += wy * wy
	}
	if normX == 0 || normY == 0 {
		return 0
	}
	return dot / (math.Sqrt(normX) * math.Sqrt(normY))
}

// CosineSparse 计算两个稀疏向量（map 形式）的余弦相似度。
// 用户邻域召回用它比较两条中心化评分行。
// 缺失的维度按 0 处理；任一范数为 0 时返回 0。
func CosineSparse(a, b map[string]float64) float64 {
	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	// 点积只需遍历较小的一侧
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for k, v := range small {
		if w, ok := large[k]; ok {
			dot += v * w
		}
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
