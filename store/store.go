// Package store 提供 core.Store / core.KeyValueStore 的具体实现。
// 接口定义在 core 包（领域层定义接口，这里只做基础设施实现）。
//
// 推荐引擎的三类数据都走同一套 Store：
//   - 评分导出与离线工件（均值表、相似度长表）
//   - 目录统计（热度榜可直接落 zset）
//   - 带 TTL 的推荐结果缓存（默认 24h）
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	adapter := recall.NewStoreAdapter(s, "boardrec")
package store

// DefaultResultTTL 是推荐结果缓存的默认过期秒数（24h）。
// 离线工件每日重建，结果缓存的生命周期与之对齐。
const DefaultResultTTL = 24 * 60 * 60
