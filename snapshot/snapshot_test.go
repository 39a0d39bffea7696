package snapshot

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/recall"
	"github.com/meeplelab/boardrec/similarity"
)

type countingLoader struct {
	mu    sync.Mutex
	loads int
}

func (l *countingLoader) ItemSimilarity(ctx context.Context) (recall.SimLookup, error) {
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()
	m := similarity.NewMatrix(similarity.AxisItem)
	m.Set("a", "b", 0.5)
	return m, nil
}

func (l *countingLoader) ItemMeans(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{"a": 7, "b": 6}, nil
}

func (l *countingLoader) FeatureTable(ctx context.Context) (*feature.Table, error) {
	schema := feature.NewSchema("v1", []string{"war"}, nil)
	return feature.NewTable(schema, []feature.Game{{ID: "a"}}), nil
}

func TestManagerUnavailableBeforeRefresh(t *testing.T) {
	m := NewManager(&countingLoader{}, zerolog.Nop())

	assert.Nil(t, m.Current())
	_, err := m.ItemSimilarity(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
	_, err = m.ItemMeans(context.Background())
	assert.True(t, core.IsUnavailable(err))
	_, err = m.FeatureTable(context.Background())
	assert.True(t, core.IsUnavailable(err))
}

func TestManagerRefreshAndServe(t *testing.T) {
	m := NewManager(&countingLoader{}, zerolog.Nop())

	s, err := m.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NotEmpty(t, s.Version)
	assert.Same(t, s, m.Current())

	sim, err := m.ItemSimilarity(context.Background())
	require.NoError(t, err)
	v, ok := sim.Get("a", "b")
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)

	means, err := m.ItemMeans(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.0, means["a"], 1e-9)

	table, err := m.FeatureTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestManagerRefreshChangesVersion(t *testing.T) {
	m := NewManager(&countingLoader{}, zerolog.Nop())

	first, err := m.Refresh(context.Background())
	require.NoError(t, err)
	second, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, second.Version)
	assert.Same(t, second, m.Current())
}

func TestManagerSwapDirect(t *testing.T) {
	m := NewManager(&countingLoader{}, zerolog.Nop())

	s := &Snapshot{Version: "offline-build", ItemMeans: map[string]float64{"x": 5}}
	m.Swap(s)
	assert.Same(t, s, m.Current())

	means, err := m.ItemMeans(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, means["x"], 1e-9)

	// 快照缺特征表时，特征路径单独报 UNAVAILABLE
	_, err = m.FeatureTable(context.Background())
	assert.True(t, core.IsUnavailable(err))
}

func TestManagerConcurrentRefreshSingleflight(t *testing.T) {
	loader := &countingLoader{}
	m := NewManager(loader, zerolog.Nop())

	var wg sync.WaitGroup
	versions := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Refresh(context.Background())
			if err == nil && s != nil {
				versions[i] = s.Version
			}
		}(i)
	}
	wg.Wait()

	// 并发刷新合并，实际加载次数远小于调用次数
	loader.mu.Lock()
	loads := loader.loads
	loader.mu.Unlock()
	assert.Less(t, loads, 8)
	for _, v := range versions {
		assert.NotEmpty(t, v)
	}
}
