// Package matrix 实现效用矩阵（utility matrix）的构建与派生统计。
// 效用矩阵是稀疏的 user×game 评分表：key 不存在表示未评分，永远不等价于 0 分。
package matrix

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/meeplelab/boardrec/core"
)

// ErrEmptyInput 表示没有任何评分可用于建矩阵。
// 空矩阵上的相似度与均值计算没有定义，因此这里直接拒绝，
// 上游应将其翻译为数据不足、暂时无法推荐。
var ErrEmptyInput = core.NewDomainError(core.ModuleMatrix, core.ErrorCodeEmptyInput, "matrix: no ratings to build from")

// Utility 是构建完成的效用矩阵。构建后只读：
// 引擎的所有预测路径都只读取它，不同请求可以无锁共享同一个实例。
type Utility struct {
	rows    map[string]map[string]float64 // userID -> gameID -> rating
	users   []string                      // 升序，保证遍历顺序确定
	games   []string                      // 升序
	entries int                           // 去重后的评分条数
}

// Build 把扁平的评分列表转换为稀疏效用矩阵。
//
// 去重策略：同一 (user, game) 出现多次时保留输入顺序中最后一次出现的值
// （last write wins）。需要 first write wins 等其他策略的调用方
// 应自行预排序输入。
//
// 纯函数，无任何 I/O。输入为空时返回 ErrEmptyInput。
func Build(ratings []core.Rating) (*Utility, error) {
	if len(ratings) == 0 {
		return nil, ErrEmptyInput
	}

	rows := make(map[string]map[string]float64)
	gameSet := make(map[string]struct{})
	entries := 0

	for _, r := range ratings {
		row, ok := rows[r.UserID]
		if !ok {
			row = make(map[string]float64)
			rows[r.UserID] = row
		}
		if _, dup := row[r.GameID]; !dup {
			entries++
		}
		row[r.GameID] = r.Value
		gameSet[r.GameID] = struct{}{}
	}

	users := make([]string, 0, len(rows))
	for u := range rows {
		users = append(users, u)
	}
	sort.Strings(users)

	games := make([]string, 0, len(gameSet))
	for g := range gameSet {
		games = append(games, g)
	}
	sort.Strings(games)

	return &Utility{
		rows:    rows,
		users:   users,
		games:   games,
		entries: entries,
	}, nil
}

// Users 返回全部用户 ID（升序）。返回值为内部切片，调用方不得修改。
func (u *Utility) Users() []string { return u.users }

// Games 返回全部桌游 ID（升序）。返回值为内部切片，调用方不得修改。
func (u *Utility) Games() []string { return u.games }

// NumRatings 返回去重后的评分条数。
func (u *Utility) NumRatings() int { return u.entries }

// Rating 返回某用户对某桌游的评分；未评分时返回 (0, false)。
func (u *Utility) Rating(userID, gameID string) (float64, bool) {
	row, ok := u.rows[userID]
	if !ok {
		return 0, false
	}
	v, ok := row[gameID]
	return v, ok
}

// Row 返回某用户的全部评分（gameID -> rating）；用户不存在时返回 nil。
// 返回值为内部 map，调用方不得修改。
func (u *Utility) Row(userID string) map[string]float64 {
	return u.rows[userID]
}

// UserMean 返回某用户已有评分的均值；用户无评分时返回 0。
func (u *Utility) UserMean(userID string) float64 {
	row := u.rows[userID]
	if len(row) == 0 {
		return 0
	}
	var sum float64
	for _, v := range row {
		sum += v
	}
	return sum / float64(len(row))
}

// Sparsity 返回矩阵的填充率 = 评分条数 / (用户数 × 桌游数)。
// 经验上填充率 < 0.005 时协同过滤的效果存疑，调用方可据此降级到
// 内容/热度策略。
func (u *Utility) Sparsity() float64 {
	denom := float64(len(u.users)) * float64(len(u.games))
	if denom == 0 {
		return 0
	}
	return float64(u.entries) / denom
}

// ItemMeans 计算每个桌游在全部评分用户上的全局均值。
// 该表是 KNN 的基线预测：邻居证据不足时预测值退回物品均值。
// 离线计算一次，线上作为只读快照使用。
func (u *Utility) ItemMeans() map[string]float64 {
	sums := make(map[string]float64, len(u.games))
	counts := make(map[string]int, len(u.games))
	for _, row := range u.rows {
		for g, v := range row {
			sums[g] += v
			counts[g]++
		}
	}
	means := make(map[string]float64, len(sums))
	for g, s := range sums {
		means[g] = s / float64(counts[g])
	}
	return means
}

// FilterMinRatings 返回一个只保留评分数不低于 minPerGame 的桌游的新矩阵。
// 原始矩阵不被修改。User-CF 在大语料上会先用它裁掉长尾（原系统取 50），
// 避免单个共同评分者撑出高置信度假象。
// 过滤后可能没有任何评分残留，此时返回 ErrEmptyInput。
func (u *Utility) FilterMinRatings(minPerGame int) (*Utility, error) {
	if minPerGame <= 1 {
		return u, nil
	}

	counts := make(map[string]int, len(u.games))
	for _, row := range u.rows {
		for g := range row {
			counts[g]++
		}
	}

	kept := make([]core.Rating, 0, u.entries)
	for _, userID := range u.users {
		row := u.rows[userID]
		for _, gameID := range u.games {
			if counts[gameID] < minPerGame {
				continue
			}
			if v, ok := row[gameID]; ok {
				kept = append(kept, core.Rating{UserID: userID, GameID: gameID, Value: v})
			}
		}
	}
	return Build(kept)
}

// Fingerprint 返回矩阵内容的 xxhash 指纹。
// 相同内容的矩阵（无论输入顺序）得到相同指纹，
// 相似度计算的结果缓存以此为 key。
func (u *Utility) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, userID := range u.users {
		_, _ = d.WriteString(userID)
		_, _ = d.Write([]byte{0})
		row := u.rows[userID]
		for _, gameID := range u.games {
			v, ok := row[gameID]
			if !ok {
				continue
			}
			_, _ = d.WriteString(gameID)
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}
