package core

// 桌游评分的取值范围。BGG 系语料统一使用 1-10 分制。
const (
	RatingMin = 1.0
	RatingMax = 10.0
)

// Rating 是一条用户对桌游的评分记录。
// 唯一性约束：同一 (UserID, GameID) 至多一条评分，重复出现时以后出现者为准
// （last write wins，由 matrix.Build 在建矩阵时统一去重）。
// 引擎内部从不修改评分；更新/覆盖语义由上游负责。
type Rating struct {
	UserID  string
	GameID  string
	Value   float64
	Comment string // 可选的文字评价，引擎不参与计算
}
