package recall

import (
	"context"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/matrix"
)

// Source 表示一个可复用的召回策略（KNN/UserCF/内容/热度/...）。
// 四种策略消费同一概念输入（目标用户的已知评分 + 全量目录），
// 产出同一概念输出（带分数的候选桌游列表），可并发 fan-out。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// SimLookup 抽象相似度查询；*similarity.Matrix 实现它。
// 预测路径只读，未定义的 pair 返回 (0, false)。
type SimLookup interface {
	Get(a, b string) (float64, bool)
}

// UtilityProvider 提供 UserCF 所需的全量效用矩阵。
// 由 StoreAdapter（线上）或测试夹具实现。
type UtilityProvider interface {
	Utility(ctx context.Context) (*matrix.Utility, error)
}

// ArtifactProvider 提供 KNN 所需的离线工件：物品相似度与物品均值。
// 两者由离线任务成批计算，线上作为只读快照消费；
// 由 snapshot.Manager 或 StoreAdapter 实现。
type ArtifactProvider interface {
	ItemSimilarity(ctx context.Context) (SimLookup, error)
	ItemMeans(ctx context.Context) (map[string]float64, error)
}

// FeatureProvider 提供内容推荐所需的特征表。
type FeatureProvider interface {
	FeatureTable(ctx context.Context) (*feature.Table, error)
}

// CatalogProvider 提供热度推荐所需的目录统计。
type CatalogProvider interface {
	CatalogStats(ctx context.Context) ([]PopularityEntry, error)
}
