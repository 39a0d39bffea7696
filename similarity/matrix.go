package similarity

// Axis 标记相似度计算的方向。
type Axis string

const (
	AxisItem Axis = "item" // 物品-物品相似度（供 KNN 消费）
	AxisUser Axis = "user" // 用户-用户相似度（供 UserCF 消费）
)

type pairKey struct {
	a, b string
}

// orderedKey 把 (a,b) 归一化为字典序有序的 key，保证矩阵对称存取。
func orderedKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Matrix 是对称的相似度矩阵。
//
// 未定义的 pair（共同评分者不足、或从未计算过）在矩阵中缺席，
// Get 返回 (0, false)；对角线 sim(a,a) 从不存储，预测路径的邻居选取
// 也从不查询自身。构建完成后只读，线上作为不可变快照共享。
type Matrix struct {
	axis Axis
	vals map[pairKey]float64

	// Fingerprint 是产出该矩阵的效用矩阵指纹，用于缓存与快照对账。
	Fingerprint uint64
}

func NewMatrix(axis Axis) *Matrix {
	return &Matrix{
		axis: axis,
		vals: make(map[pairKey]float64),
	}
}

func (m *Matrix) Axis() Axis { return m.axis }

// Len 返回已定义的 pair 数。
func (m *Matrix) Len() int { return len(m.vals) }

// Get 返回 a 与 b 的相似度；pair 未定义时返回 (0, false)。
// a == b 永远未定义。
func (m *Matrix) Get(a, b string) (float64, bool) {
	if a == b {
		return 0, false
	}
	v, ok := m.vals[orderedKey(a, b)]
	return v, ok
}

// Set 写入一个对称 pair 的相似度；自身 pair 被忽略。
// 只应在构建阶段（Computer / 长表 pivot）调用，线上路径只读。
func (m *Matrix) Set(a, b string, sim float64) {
	if a == b {
		return
	}
	m.vals[orderedKey(a, b)] = sim
}

// Each 按未定义的遍历顺序回调全部 pair，用于离线任务导出长表。
func (m *Matrix) Each(fn func(a, b string, sim float64)) {
	for k, v := range m.vals {
		fn(k.a, k.b, v)
	}
}
