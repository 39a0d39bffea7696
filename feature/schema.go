// Package feature 实现桌游的内容特征：固定布局的特征向量、
// 可见的权重配置与 min-max 归一化。
//
// 列布局由版本化的 Schema 决定：
//
//	[min_players, max_players, min_playtime, max_playtime, difficulty,
//	 类别 one-hot ..., 机制 one-hot ...]
//
// 目录或类别/机制分类法变化时必须整表重建并升版本；
// 线上永远只消费构建完成的不可变 Table。
package feature

import "sort"

// NumNumeric 是数值特征列数：min/max 玩家数、min/max 时长、难度。
const NumNumeric = 5

// Schema 定义特征向量的固定列布局。
// Categories/Mechanics 在构造时排序去重，保证同一分类法下
// 任何输入顺序都得到同一布局。
type Schema struct {
	Version    string
	categories []string
	mechanics  []string
	catIndex   map[string]int
	mecIndex   map[string]int
}

func NewSchema(version string, categories, mechanics []string) *Schema {
	s := &Schema{
		Version:    version,
		categories: dedupSorted(categories),
		mechanics:  dedupSorted(mechanics),
	}
	s.catIndex = make(map[string]int, len(s.categories))
	for i, c := range s.categories {
		s.catIndex[c] = i
	}
	s.mecIndex = make(map[string]int, len(s.mechanics))
	for i, m := range s.mechanics {
		s.mecIndex[m] = i
	}
	return s
}

func dedupSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Dim 返回向量总维数。
func (s *Schema) Dim() int { return NumNumeric + len(s.categories) + len(s.mechanics) }

// Categories 返回分类法的类别全集（升序）。返回值为内部切片，
// 调用方不得修改；存储适配器用它序列化 Schema。
func (s *Schema) Categories() []string { return s.categories }

// Mechanics 返回分类法的机制全集（升序）。返回值为内部切片，
// 调用方不得修改。
func (s *Schema) Mechanics() []string { return s.mechanics }

// NumCategories 返回类别列数。
func (s *Schema) NumCategories() int { return len(s.categories) }

// NumMechanics 返回机制列数。
func (s *Schema) NumMechanics() int { return len(s.mechanics) }

// CategoryRange 返回类别 one-hot 区段的 [start, end) 列下标。
func (s *Schema) CategoryRange() (int, int) {
	return NumNumeric, NumNumeric + len(s.categories)
}

// MechanicRange 返回机制 one-hot 区段的 [start, end) 列下标。
func (s *Schema) MechanicRange() (int, int) {
	start := NumNumeric + len(s.categories)
	return start, start + len(s.mechanics)
}

// Game 是目录中一款桌游的原始内容属性（由 ETL 协作方供给）。
type Game struct {
	ID          string
	Name        string
	MinPlayers  float64
	MaxPlayers  float64
	MinPlaytime float64
	MaxPlaytime float64
	Difficulty  float64
	Categories  []string
	Mechanics   []string
}

// Vector 按 Schema 布局把一款桌游编码为定长向量。
// 不在分类法中的类别/机制被静默忽略（它们属于下一个 Schema 版本）。
func (s *Schema) Vector(g Game) []float64 {
	v := make([]float64, s.Dim())
	v[0] = g.MinPlayers
	v[1] = g.MaxPlayers
	v[2] = g.MinPlaytime
	v[3] = g.MaxPlaytime
	v[4] = g.Difficulty

	catStart, _ := s.CategoryRange()
	for _, c := range g.Categories {
		if i, ok := s.catIndex[c]; ok {
			v[catStart+i] = 1
		}
	}
	mecStart, _ := s.MechanicRange()
	for _, m := range g.Mechanics {
		if i, ok := s.mecIndex[m]; ok {
			v[mecStart+i] = 1
		}
	}
	return v
}
