package similarity

import (
	"sync"

	"github.com/meeplelab/boardrec/matrix"
)

// DefaultMinCoRatings 是物品-物品相似度的默认最小共同评分者数。
// 单个共同评分者就能撑出 1.0 的虚高相似度，这是语料里真实存在的
// 陷阱，因此该阈值是显式配置而非隐藏常量。
const DefaultMinCoRatings = 2

// Computer 批量计算对称相似度矩阵。
//
// 两种口径：
//   - AxisUser + Center=true：每行减去行均值后做余弦（Pearson 式），
//     未评分格子中心化后视为 0，不会产生正或负的贡献；
//   - AxisItem + Center=false：只在同时评过两款桌游的用户子向量上做
//     原始余弦，共同评分者少于 MinCoRatings 的 pair 视为未定义（缺席）。
//
// 主要成本是所选方向上的 O(n²) 两两比较，应作为离线批任务运行，
// 不要出现在请求路径上。结果按输入矩阵的内容指纹缓存，
// 同一矩阵的重复计算直接命中缓存。
type Computer struct {
	Axis   Axis
	Center bool

	// MinCoRatings 仅对 AxisItem 生效；<=0 时使用 DefaultMinCoRatings。
	MinCoRatings int

	mu    sync.Mutex
	cache map[cacheKey]*Matrix
}

type cacheKey struct {
	fingerprint uint64
	axis        Axis
	center      bool
	minCo       int
}

// Compute 计算 u 的相似度矩阵。确定性：实体按 ID 升序两两比较，
// 同输入（按内容而非顺序）必得到同一结果。
func (c *Computer) Compute(u *matrix.Utility) *Matrix {
	minCo := c.MinCoRatings
	if minCo <= 0 {
		minCo = DefaultMinCoRatings
	}

	key := cacheKey{
		fingerprint: u.Fingerprint(),
		axis:        c.Axis,
		center:      c.Center,
		minCo:       minCo,
	}

	c.mu.Lock()
	if m, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return m
	}
	c.mu.Unlock()

	var m *Matrix
	switch c.Axis {
	case AxisUser:
		m = c.computeUsers(u)
	default:
		m = c.computeItems(u, minCo)
	}
	m.Fingerprint = key.fingerprint

	c.mu.Lock()
	if c.cache == nil {
		c.cache = make(map[cacheKey]*Matrix)
	}
	c.cache[key] = m
	c.mu.Unlock()
	return m
}

// computeUsers 计算用户-用户的中心化余弦相似度。
func (c *Computer) computeUsers(u *matrix.Utility) *Matrix {
	users := u.Users()

	// 先物化每行的中心化向量；未评分格子不出现在 map 中，等价于中心化后的 0
	centered := make([]map[string]float64, len(users))
	for i, userID := range users {
		row := u.Row(userID)
		mean := u.UserMean(userID)
		cr := make(map[string]float64, len(row))
		for g, v := range row {
			cr[g] = v - mean
		}
		centered[i] = cr
	}

	m := NewMatrix(AxisUser)
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			// 全零行（如所有评分恰等于均值）与任何人相似度为 0，照常写入：
			// 0 是无信息，不是未定义
			m.Set(users[i], users[j], CosineSparse(centered[i], centered[j]))
		}
	}
	return m
}

// computeItems 计算物品-物品的原始余弦相似度，限制在共同评分者上。
func (c *Computer) computeItems(u *matrix.Utility, minCo int) *Matrix {
	users := u.Users()
	games := u.Games()

	// 列视图：gameID -> (userID -> rating)
	cols := make(map[string]map[string]float64, len(games))
	for _, g := range games {
		cols[g] = make(map[string]float64)
	}
	for _, userID := range users {
		for g, v := range u.Row(userID) {
			cols[g][userID] = v
		}
	}

	m := NewMatrix(AxisItem)
	for i := 0; i < len(games); i++ {
		colA := cols[games[i]]
		for j := i + 1; j < len(games); j++ {
			colB := cols[games[j]]

			small, large := colA, colB
			if len(colB) < len(colA) {
				small, large = colB, colA
			}

			// 只取同时评过两款的用户；余弦对操作数顺序对称，
			// 无需关心 small 对应哪一列
			var x, y []float64
			for userID, va := range small {
				if vb, ok := large[userID]; ok {
					x = append(x, va)
					y = append(y, vb)
				}
			}
			if len(x) < minCo {
				continue // pair 未定义
			}
			m.Set(games[i], games[j], Cosine(x, y))
		}
	}
	return m
}
