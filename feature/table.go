package feature

import "sort"

// Table 是按 game_id 索引的特征向量表。构建完成后只读，
// 线上作为不可变快照共享；目录或分类法变化时整表重建。
type Table struct {
	Schema *Schema

	ids  []string // 升序，保证遍历顺序确定
	vecs map[string][]float64
}

// NewTable 按 Schema 编码整个目录。
func NewTable(schema *Schema, games []Game) *Table {
	t := &Table{
		Schema: schema,
		vecs:   make(map[string][]float64, len(games)),
	}
	for _, g := range games {
		if _, dup := t.vecs[g.ID]; !dup {
			t.ids = append(t.ids, g.ID)
		}
		t.vecs[g.ID] = schema.Vector(g)
	}
	sort.Strings(t.ids)
	return t
}

// IDs 返回全部桌游 ID（升序）。返回值为内部切片，调用方不得修改。
func (t *Table) IDs() []string { return t.ids }

// Len 返回表内桌游数。
func (t *Table) Len() int { return len(t.ids) }

// Vector 返回某桌游的特征向量；不存在时返回 (nil, false)。
func (t *Table) Vector(id string) ([]float64, bool) {
	v, ok := t.vecs[id]
	return v, ok
}

// NormalizeNumericColumns 对一组行的数值列（前 NumNumeric 列）做
// min-max 归一化，原地修改。列内 max == min 的退化情况统一归 0，
// 不产生 NaN，与引擎全局的退化即回退契约一致。
//
// 内容推荐在计算相似度前，把目录全表加上合成的偏好行一起归一化，
// 保证合成行与真实桌游落在同一量纲。
func NormalizeNumericColumns(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	for col := 0; col < NumNumeric && col < len(rows[0]); col++ {
		min, max := rows[0][col], rows[0][col]
		for _, r := range rows[1:] {
			if r[col] < min {
				min = r[col]
			}
			if r[col] > max {
				max = r[col]
			}
		}
		span := max - min
		for _, r := range rows {
			if span == 0 {
				r[col] = 0
				continue
			}
			r[col] = (r[col] - min) / span
		}
	}
}
