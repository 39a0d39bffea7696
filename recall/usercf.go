package recall

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/matrix"
	"github.com/meeplelab/boardrec/pkg/utils"
	"github.com/meeplelab/boardrec/similarity"
)

// UserCF 的默认邻域参数。
const (
	// DefaultTopFraction 表示取相似用户的前 20% 作为邻域。
	DefaultTopFraction = 0.2
	// DefaultMinSupport 表示少于 5 个邻居评过的桌游视为证据不足。
	DefaultMinSupport = 5
)

// UserNeighborhood 基于用户邻域做召回：找和目标用户口味最像的一批用户，
// 用他们对目标用户未评分桌游的原始评分均值打分。
//
// 与 KNN 不同，相似度在请求路径上对完整矩阵现算（中心化余弦），
// 所以只适合中小规模目录；大目录应走离线工件路径。
type UserNeighborhood struct {
	// TopFraction 为邻域占全部其他用户的比例，(0,1]；
	// <=0 时取 DefaultTopFraction。邻居数 = round(n · fraction)。
	TopFraction float64

	// MinSupport 为一款桌游构成有效推荐所需的最少邻居评分数。
	// 支持度不足的桌游分数置 0 但保留在结果中（可解释性优先于截断）。
	// <=0 时取 DefaultMinSupport。
	MinSupport int

	// MinGameRatings 为建矩阵前的目录过滤阈值：全网评分数低于该值的
	// 桌游整列剔除。<=1 时不过滤。
	MinGameRatings int
}

type userNeighbor struct {
	userID string
	sim    float64
}

type userCFCandidate struct {
	gameID  string
	score   float64
	support int
}

// Rank 对目标用户未评分的全部桌游给出完整排名。
// 目标用户不在矩阵中或矩阵退化时返回空结果，不报错。
func (n *UserNeighborhood) Rank(
	userID string,
	util *matrix.Utility,
) ([]userCFCandidate, error) {
	fraction := n.TopFraction
	if fraction <= 0 {
		fraction = DefaultTopFraction
	}
	minSupport := n.MinSupport
	if minSupport <= 0 {
		minSupport = DefaultMinSupport
	}

	if n.MinGameRatings > 1 {
		filtered, err := util.FilterMinRatings(n.MinGameRatings)
		if err != nil {
			return nil, err
		}
		util = filtered
	}

	target := util.Row(userID)
	if len(target) == 0 {
		return nil, nil
	}
	targetMean := util.UserMean(userID)

	// 目标用户与每个其他用户的中心化余弦相似度。
	// 用户列表已排序，遍历顺序确定。
	others := make([]userNeighbor, 0, len(util.Users()))
	for _, other := range util.Users() {
		if other == userID {
			continue
		}
		row := util.Row(other)
		if len(row) == 0 {
			continue
		}
		sim := centeredCosine(target, targetMean, row, util.UserMean(other))
		others = append(others, userNeighbor{userID: other, sim: sim})
	}
	if len(others) == 0 {
		return nil, nil
	}

	// 邻域 = 相似度前 round(n·fraction) 的用户，至少 1 个
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].sim > others[j].sim
	})
	top := int(math.Round(float64(len(others)) * fraction))
	if top < 1 {
		top = 1
	}
	if top > len(others) {
		top = len(others)
	}
	neighbors := others[:top]

	// 未评分桌游的分数 = 邻域内评过它的用户的原始评分均值。
	// 结果覆盖目标用户的每一款未评分桌游：邻域没人评过的条目
	// 分数为 0 但不丢弃，排名长度恒等于 目录数 - 已评分数
	out := make([]userCFCandidate, 0, len(util.Games()))
	for _, gameID := range util.Games() {
		if _, rated := target[gameID]; rated {
			continue
		}
		var sum float64
		support := 0
		for _, nb := range neighbors {
			if v, ok := util.Rating(nb.userID, gameID); ok {
				sum += v
				support++
			}
		}
		var score float64
		if support >= minSupport {
			score = sum / float64(support)
		}
		// 支持度不足时分数置 0 但条目保留，下游可按 support 标签解释
		out = append(out, userCFCandidate{gameID: gameID, score: score, support: support})
	}

	// 分数降序；并列看支持度（证据多者靠前），再按 ID 升序兜底
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.support != b.support {
			return a.support > b.support
		}
		return a.gameID < b.gameID
	})
	return out, nil
}

// centeredCosine 对两个稀疏评分行做各自均值中心化后的余弦相似度。
// 中心化消除用户打分尺度差异（有人满分起评，有人从不给 10 分）。
func centeredCosine(a map[string]float64, meanA float64, b map[string]float64, meanB float64) float64 {
	ca := make(map[string]float64, len(a))
	for k, v := range a {
		ca[k] = v - meanA
	}
	cb := make(map[string]float64, len(b))
	for k, v := range b {
		cb[k] = v - meanB
	}
	return similarity.CosineSparse(ca, cb)
}

// UserCFRecall 把 UserNeighborhood 包装为召回源。
type UserCFRecall struct {
	Matrix UtilityProvider

	TopFraction    float64
	MinSupport     int
	MinGameRatings int
}

func (r *UserCFRecall) Name() string { return "recall.usercf" }

func (r *UserCFRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Matrix == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	util, err := r.Matrix.Utility(ctx)
	if err != nil {
		return nil, err
	}

	ranker := &UserNeighborhood{
		TopFraction:    r.TopFraction,
		MinSupport:     r.MinSupport,
		MinGameRatings: r.MinGameRatings,
	}
	ranked, err := ranker.Rank(rctx.UserID, util)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, c := range ranked {
		it := core.NewItem(c.gameID)
		it.Score = c.score
		it.PutLabel("recall_source", utils.Label{Value: "usercf", Source: "recall"})
		it.PutLabel("support", utils.Label{Value: strconv.Itoa(c.support), Source: "recall.usercf"})
		out = append(out, it)
	}
	return out, nil
}
