package matrix

import (
	"math"
	"testing"

	"github.com/meeplelab/boardrec/core"
)

func TestBuild_EmptyInput(t *testing.T) {
	if _, err := Build(nil); !core.IsEmptyInput(err) {
		t.Fatalf("空输入应返回 EMPTY_INPUT，实际: %v", err)
	}
	if _, err := Build([]core.Rating{}); !core.IsEmptyInput(err) {
		t.Fatalf("空切片应返回 EMPTY_INPUT，实际: %v", err)
	}
}

func TestBuild_DedupLastWriteWins(t *testing.T) {
	u, err := Build([]core.Rating{
		{UserID: "u1", GameID: "g1", Value: 3},
		{UserID: "u1", GameID: "g2", Value: 7},
		{UserID: "u1", GameID: "g1", Value: 9}, // 覆盖第一条
	})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}

	if got, ok := u.Rating("u1", "g1"); !ok || got != 9 {
		t.Errorf("去重应保留最后一次出现的值，期望 9，实际 %v (ok=%v)", got, ok)
	}
	if u.NumRatings() != 2 {
		t.Errorf("去重后应有 2 条评分，实际 %d", u.NumRatings())
	}
}

func TestUtility_SparsityAndMeans(t *testing.T) {
	u, err := Build([]core.Rating{
		{UserID: "u1", GameID: "g1", Value: 8},
		{UserID: "u1", GameID: "g2", Value: 4},
		{UserID: "u2", GameID: "g1", Value: 6},
	})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}

	// 3 条评分 / (2 用户 × 2 桌游)
	if got := u.Sparsity(); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Sparsity 期望 0.75，实际 %v", got)
	}

	means := u.ItemMeans()
	if got := means["g1"]; math.Abs(got-7) > 1e-12 {
		t.Errorf("g1 均值期望 7，实际 %v", got)
	}
	if got := means["g2"]; math.Abs(got-4) > 1e-12 {
		t.Errorf("g2 均值期望 4，实际 %v", got)
	}

	if got := u.UserMean("u1"); math.Abs(got-6) > 1e-12 {
		t.Errorf("u1 行均值期望 6，实际 %v", got)
	}
	if got := u.UserMean("ghost"); got != 0 {
		t.Errorf("不存在用户的行均值应为 0，实际 %v", got)
	}
}

func TestUtility_AbsenceIsNotZero(t *testing.T) {
	u, err := Build([]core.Rating{{UserID: "u1", GameID: "g1", Value: 5}})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}
	if _, ok := u.Rating("u1", "g2"); ok {
		t.Error("未评分的格子不应存在，缺失永远不等价于 0 分")
	}
}

func TestUtility_FilterMinRatings(t *testing.T) {
	u, err := Build([]core.Rating{
		{UserID: "u1", GameID: "g1", Value: 8},
		{UserID: "u2", GameID: "g1", Value: 6},
		{UserID: "u1", GameID: "g2", Value: 4}, // g2 只有一条评分
	})
	if err != nil {
		t.Fatalf("Build 失败: %v", err)
	}

	filtered, err := u.FilterMinRatings(2)
	if err != nil {
		t.Fatalf("FilterMinRatings 失败: %v", err)
	}
	if len(filtered.Games()) != 1 || filtered.Games()[0] != "g1" {
		t.Errorf("只应保留 g1，实际 %v", filtered.Games())
	}
	// 原矩阵不受影响
	if len(u.Games()) != 2 {
		t.Errorf("原矩阵不应被修改，实际 games=%v", u.Games())
	}

	// 过滤后为空时返回 EMPTY_INPUT
	if _, err := u.FilterMinRatings(10); !core.IsEmptyInput(err) {
		t.Errorf("全部被过滤时应返回 EMPTY_INPUT，实际: %v", err)
	}
}

func TestUtility_FingerprintDeterministic(t *testing.T) {
	a := []core.Rating{
		{UserID: "u1", GameID: "g1", Value: 8},
		{UserID: "u2", GameID: "g2", Value: 4},
	}
	// 同内容不同输入顺序
	b := []core.Rating{
		{UserID: "u2", GameID: "g2", Value: 4},
		{UserID: "u1", GameID: "g1", Value: 8},
	}

	ua, _ := Build(a)
	ub, _ := Build(b)
	if ua.Fingerprint() != ub.Fingerprint() {
		t.Error("相同内容的矩阵应有相同指纹")
	}

	uc, _ := Build([]core.Rating{{UserID: "u1", GameID: "g1", Value: 9}})
	if ua.Fingerprint() == uc.Fingerprint() {
		t.Error("不同内容的矩阵不应撞出相同指纹")
	}
}
