// Package snapshot 管理线上进程持有的离线工件快照。
//
// 离线任务每日重建物品相似度、物品均值与特征表；线上把三件工件
// 打包成一个不可变 Snapshot，整体原子切换。请求路径永远读到
// 同一版本的工件组合，不会出现新相似度配旧均值的撕裂状态。
package snapshot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/recall"
)

// Snapshot 是一个版本的离线工件组合。构建完成后只读。
type Snapshot struct {
	Version string    // uuid，日志与对账用
	BuiltAt time.Time

	ItemSim   recall.SimLookup
	ItemMeans map[string]float64
	Features  *feature.Table
}

// Loader 是快照的数据来源，通常为 recall.StoreAdapter。
type Loader interface {
	recall.ArtifactProvider
	recall.FeatureProvider
}

// Manager 持有当前快照并负责刷新与原子切换。
// 自身实现 recall.ArtifactProvider / recall.FeatureProvider，
// 召回源直接挂在 Manager 上即可随快照自动换代。
type Manager struct {
	loader Loader
	logger zerolog.Logger

	cur atomic.Pointer[Snapshot]
	sf  singleflight.Group
}

func NewManager(loader Loader, logger zerolog.Logger) *Manager {
	return &Manager{loader: loader, logger: logger}
}

// Current 返回当前快照；尚未加载过时返回 nil。
func (m *Manager) Current() *Snapshot {
	return m.cur.Load()
}

// Swap 原子切换到给定快照。离线任务跑完后直接把产物 Swap 进来，
// 不必绕道存储再 Refresh。
func (m *Manager) Swap(s *Snapshot) {
	m.cur.Store(s)
	if s != nil {
		m.logger.Info().
			Str("version", s.Version).
			Time("built_at", s.BuiltAt).
			Msg("snapshot swapped")
	}
}

// Refresh 从 Loader 重新加载全部工件并切换。并发调用合并为一次
// 实际加载（singleflight），全部调用方拿到同一个新快照。
// 加载失败时保留当前快照不变。
func (m *Manager) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		start := time.Now()

		sim, err := m.loader.ItemSimilarity(ctx)
		if err != nil {
			return nil, err
		}
		means, err := m.loader.ItemMeans(ctx)
		if err != nil {
			return nil, err
		}
		features, err := m.loader.FeatureTable(ctx)
		if err != nil {
			return nil, err
		}

		s := &Snapshot{
			Version:   uuid.NewString(),
			BuiltAt:   time.Now(),
			ItemSim:   sim,
			ItemMeans: means,
			Features:  features,
		}
		m.cur.Store(s)
		m.logger.Info().
			Str("version", s.Version).
			Int("item_means", len(means)).
			Dur("elapsed", time.Since(start)).
			Msg("snapshot refreshed")
		return s, nil
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("snapshot refresh failed, keeping current")
		return nil, err
	}
	return v.(*Snapshot), nil
}

// errNotLoaded 表示线上进程还没有任何可用快照。
func errNotLoaded() error {
	return core.NewDomainError(core.ModuleSnapshot, core.ErrorCodeUnavailable,
		"snapshot: no artifact snapshot loaded yet")
}

// ItemSimilarity 实现 recall.ArtifactProvider。
func (m *Manager) ItemSimilarity(ctx context.Context) (recall.SimLookup, error) {
	s := m.cur.Load()
	if s == nil || s.ItemSim == nil {
		return nil, errNotLoaded()
	}
	return s.ItemSim, nil
}

// ItemMeans 实现 recall.ArtifactProvider。
func (m *Manager) ItemMeans(ctx context.Context) (map[string]float64, error) {
	s := m.cur.Load()
	if s == nil || s.ItemMeans == nil {
		return nil, errNotLoaded()
	}
	return s.ItemMeans, nil
}

// FeatureTable 实现 recall.FeatureProvider。
func (m *Manager) FeatureTable(ctx context.Context) (*feature.Table, error) {
	s := m.cur.Load()
	if s == nil || s.Features == nil {
		return nil, errNotLoaded()
	}
	return s.Features, nil
}
