// Package boardrec 是一个桌游评分预测与推荐引擎。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
// - 四种召回策略消费同一输入（用户评分 + 目录），可并发 fan-out：
//   KNN-with-means、用户邻域、内容相似度、热度兜底
// - 离线/在线分离: O(n²) 的相似度计算在 batch 任务里跑，
//   线上只读版本化的不可变快照
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
package boardrec

import "github.com/meeplelab/boardrec/pipeline"

// 轻量 facade：便于用户直接 import "boardrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
