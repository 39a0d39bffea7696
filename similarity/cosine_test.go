package similarity

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"同向向量", []float64{1, 2, 3}, []float64{2, 4, 6}, 1.0},
		{"正交向量", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"反向向量", []float64{1, 1}, []float64{-1, -1}, -1.0},
		{"x 全零返回 0 而非 NaN", []float64{0, 0, 0}, []float64{1, 2, 3}, 0.0},
		{"y 全零返回 0 而非 NaN", []float64{1, 2, 3}, []float64{0, 0, 0}, 0.0},
		{"双方全零", []float64{0, 0}, []float64{0, 0}, 0.0},
		{"长度不一致视为无信息", []float64{1, 2}, []float64{1, 2, 3}, 0.0},
		{"空向量", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.x, tt.y)
			if math.IsNaN(got) {
				t.Fatal("余弦相似度永远不应返回 NaN")
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestWeightedCosine(t *testing.T) {
	// 权重为 0 的维度不参与：等价于把该维去掉
	x := []float64{1, 0, 5}
	y := []float64{1, 1, 5}
	w := []float64{1, 0, 1}
	if got := WeightedCosine(x, y, w); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("屏蔽掉差异维后应完全相似，实际 %v", got)
	}

	// 全零权重 → 范数为 0 → 按契约返回 0
	if got := WeightedCosine(x, y, []float64{0, 0, 0}); got != 0 {
		t.Errorf("全零权重应返回 0，实际 %v", got)
	}

	// 权重长度不匹配
	if got := WeightedCosine(x, y, []float64{1}); got != 0 {
		t.Errorf("权重长度不匹配应返回 0，实际 %v", got)
	}
}

func TestCosineSparse(t *testing.T) {
	a := map[string]float64{"g1": 1, "g2": 2}
	b := map[string]float64{"g1": 2, "g2": 4}
	if got := CosineSparse(a, b); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("同向稀疏向量期望 1.0，实际 %v", got)
	}

	// 无交集：点积为 0 但范数非 0
	c := map[string]float64{"g3": 5}
	if got := CosineSparse(a, c); got != 0 {
		t.Errorf("无交集期望 0，实际 %v", got)
	}

	// 空 map 的范数为 0
	if got := CosineSparse(a, map[string]float64{}); got != 0 {
		t.Errorf("空向量期望 0，实际 %v", got)
	}
}
