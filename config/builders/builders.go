// Package builders 注册全部内置 Node 的配置构建器。
// import 该包即可让 config.DefaultFactory 支持配置驱动：
//
//	import _ "github.com/meeplelab/boardrec/config/builders"
//
// 召回源依赖运行期数据（工件快照、效用矩阵、特征表、目录统计），
// 配置文件只声明结构与参数；依赖在进程启动时通过 SetDeps 注入一次。
package builders

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meeplelab/boardrec/config"
	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/filter"
	"github.com/meeplelab/boardrec/pipeline"
	"github.com/meeplelab/boardrec/pkg/conv"
	"github.com/meeplelab/boardrec/recall"
	"github.com/meeplelab/boardrec/rerank"
)

func init() {
	config.Register("recall.gate", BuildGateNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

// Deps 是配置驱动构建的运行期依赖。
type Deps struct {
	Artifacts recall.ArtifactProvider // KNN 召回
	Utility   recall.UtilityProvider  // 用户邻域召回
	Features  recall.FeatureProvider  // 内容召回
	Catalog   recall.CatalogProvider  // 热度召回
	Store     core.Store              // 黑名单等过滤器
	Logger    zerolog.Logger
}

var deps Deps

// SetDeps 注入运行期依赖，应在加载配置前调用一次。
func SetDeps(d Deps) { deps = d }

func buildSource(name string, cfg map[string]any) (recall.Source, error) {
	switch name {
	case "knn":
		if deps.Artifacts == nil {
			return nil, fmt.Errorf("knn source requires artifact provider (call builders.SetDeps)")
		}
		return &recall.KNNRecall{
			Artifacts: deps.Artifacts,
			K:         int(conv.ConfigGetInt64(cfg, "k", 0)),
			MinK:      int(conv.ConfigGetInt64(cfg, "min_k", 0)),
		}, nil
	case "usercf":
		if deps.Utility == nil {
			return nil, fmt.Errorf("usercf source requires utility provider (call builders.SetDeps)")
		}
		return &recall.UserCFRecall{
			Matrix:         deps.Utility,
			TopFraction:    conv.ConfigGetFloat64(cfg, "top_fraction", 0),
			MinSupport:     int(conv.ConfigGetInt64(cfg, "min_support", 0)),
			MinGameRatings: int(conv.ConfigGetInt64(cfg, "min_game_ratings", 0)),
		}, nil
	case "content":
		if deps.Features == nil {
			return nil, fmt.Errorf("content source requires feature provider (call builders.SetDeps)")
		}
		return &recall.ContentRecall{
			Features: deps.Features,
			TopTags:  int(conv.ConfigGetInt64(cfg, "top_tags", 0)),
		}, nil
	case "popularity":
		if deps.Catalog == nil {
			return nil, fmt.Errorf("popularity source requires catalog provider (call builders.SetDeps)")
		}
		return &recall.PopularityRecall{Catalog: deps.Catalog}, nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", name)
	}
}

// BuildGateNode 构建按评分数选择策略的召回入口。
//
// 配置示例：
//
//	type: recall.gate
//	config:
//	  min_ratings_for_cf: 3
//	  dedup: true
//	  merge_strategy: priority
//	  knn: {k: 40, min_k: 5}
//	  usercf: {top_fraction: 0.2, min_support: 5}
func BuildGateNode(cfg map[string]any) (pipeline.Node, error) {
	gate := &recall.Gate{
		MinRatingsForCF: int(conv.ConfigGetInt64(cfg, "min_ratings_for_cf", 0)),
		Dedup:           conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy:   conv.ConfigGet(cfg, "merge_strategy", ""),
		Logger:          deps.Logger,
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		gate.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		gate.MaxConcurrent = int(n)
	}

	// 四个槽位按依赖可用性填充；显式给了子配置的槽位带上调参
	if deps.Artifacts != nil {
		src, err := buildSource("knn", subConfig(cfg, "knn"))
		if err != nil {
			return nil, err
		}
		gate.KNN = src
	}
	if deps.Utility != nil {
		src, err := buildSource("usercf", subConfig(cfg, "usercf"))
		if err != nil {
			return nil, err
		}
		gate.UserCF = src
	}
	if deps.Features != nil {
		src, err := buildSource("content", subConfig(cfg, "content"))
		if err != nil {
			return nil, err
		}
		gate.Content = src
	}
	if deps.Catalog != nil {
		src, err := buildSource("popularity", subConfig(cfg, "popularity"))
		if err != nil {
			return nil, err
		}
		gate.Popularity = src
	}
	return gate, nil
}

func subConfig(cfg map[string]any, key string) map[string]any {
	if m, ok := cfg[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// BuildFanoutNode 构建不带策略门控的并发召回（全部声明的源都执行）。
//
// 配置示例：
//
//	type: recall.fanout
//	config:
//	  dedup: true
//	  sources:
//	    - {type: knn, k: 40}
//	    - {type: popularity}
func BuildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		src, err := buildSource(conv.ConfigGet(sourceMap, "type", ""), sourceMap)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
		Logger:        deps.Logger,
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

// BuildFilterNode 构建过滤节点。
//
// 配置示例：
//
//	type: filter
//	config:
//	  filters:
//	    - {type: rated}
//	    - {type: blacklist, game_ids: [g1], key: "boardrec:blacklist"}
//	    - {type: rule, expr: 'item.score < 1.0'}
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "rated":
			filters = append(filters, &filter.RatedFilter{})
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["game_ids"])
			if ids == nil {
				ids = []string{}
			}
			filters = append(filters, &filter.BlacklistFilter{
				GameIDs: ids,
				Store:   deps.Store,
				Key:     conv.ConfigGet(filterMap, "key", ""),
			})
		case "rule":
			filters = append(filters, &filter.RuleFilter{
				Expr: conv.ConfigGet(filterMap, "expr", ""),
			})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "category")
	if labelKey == "" {
		labelKey = "category"
	}
	return &rerank.Diversity{LabelKey: labelKey}, nil
}
