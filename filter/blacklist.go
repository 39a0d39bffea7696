package filter

import (
	"context"
	"encoding/json"

	"github.com/meeplelab/boardrec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的桌游
// （下架、地区限制、运营手动屏蔽）。
type BlacklistFilter struct {
	// GameIDs 是内存中的黑名单 ID 列表
	GameIDs []string

	// Store 用于从存储中读取黑名单（可选），与内存列表取并集
	Store core.Store

	// Key 是 Store 中的黑名单 key，存 JSON 的 ID 数组
	Key string
}

func (f *BlacklistFilter) Name() string { return "filter.blacklist" }

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.GameIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err != nil {
			// 黑名单读不到时放行，不因存储抖动拦掉整个候选集
			return false, nil
		}
		var blacklist []string
		if err := json.Unmarshal(data, &blacklist); err != nil {
			return false, nil
		}
		for _, id := range blacklist {
			if item.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
