package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/pkg/utils"
)

func scored(id string, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	return it
}

func TestTopNSortsAndTruncates(t *testing.T) {
	n := &TopNNode{N: 2}
	out, err := n.Process(context.Background(), nil, []*core.Item{
		scored("c", 1.0), scored("a", 9.0), scored("b", 5.0),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestTopNTieBrokenByID(t *testing.T) {
	n := &TopNNode{N: 10}
	out, err := n.Process(context.Background(), nil, []*core.Item{
		scored("z", 5.0), scored("a", 5.0), scored("m", 5.0),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "m", out[1].ID)
	assert.Equal(t, "z", out[2].ID)
}

func TestTopNDefault(t *testing.T) {
	items := make([]*core.Item, 0, DefaultTopN+10)
	for i := 0; i < DefaultTopN+10; i++ {
		items = append(items, scored(string(rune('a'+i%26))+string(rune('a'+i/26)), float64(i)))
	}

	n := &TopNNode{}
	out, err := n.Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Len(t, out, DefaultTopN)
}

func TestDiversityDedupByCategory(t *testing.T) {
	war1 := scored("war1", 9)
	war1.PutLabel("category", utils.Label{Value: "war", Source: "meta"})
	war2 := scored("war2", 8)
	war2.PutLabel("category", utils.Label{Value: "war", Source: "meta"})
	eco := scored("eco", 7)
	eco.PutLabel("category", utils.Label{Value: "economic", Source: "meta"})
	plain := scored("plain", 6)

	n := &Diversity{}
	out, err := n.Process(context.Background(), nil, []*core.Item{war1, war2, eco, plain})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "war1", out[0].ID)
	assert.Equal(t, "eco", out[1].ID)
	assert.Equal(t, "plain", out[2].ID)
}
