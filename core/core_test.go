package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meeplelab/boardrec/pkg/utils"
)

func TestRatingMapLastWriteWins(t *testing.T) {
	rctx := &RecommendContext{
		UserID: "u",
		Ratings: []Rating{
			{UserID: "u", GameID: "g", Value: 5},
			{UserID: "u", GameID: "g", Value: 9},
		},
	}
	assert.InDelta(t, 9.0, rctx.RatingMap()["g"], 1e-12)
}

func TestMaxRating(t *testing.T) {
	rctx := &RecommendContext{UserID: "u"}
	_, ok := rctx.MaxRating()
	assert.False(t, ok)

	rctx.Ratings = []Rating{
		{UserID: "u", GameID: "a", Value: 6},
		{UserID: "u", GameID: "b", Value: 9},
		{UserID: "u", GameID: "c", Value: 3},
	}
	max, ok := rctx.MaxRating()
	assert.True(t, ok)
	assert.InDelta(t, 9.0, max, 1e-12)
}

func TestItemLabelMerge(t *testing.T) {
	it := NewItem("g")
	it.PutLabel("recall_source", utils.Label{Value: "knn", Source: "recall"})
	it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})

	assert.Equal(t, "knn|content", it.Labels["recall_source"].Value)
}

func TestDomainErrorCodes(t *testing.T) {
	err := NewDomainError(ModuleRecall, ErrorCodeUnknownItem, "recall: game missing")
	assert.True(t, IsUnknownItem(err))
	assert.False(t, IsEmptyInput(err))
	assert.False(t, IsUnknownItem(errors.New("plain")))
	assert.False(t, IsUnknownItem(nil))

	assert.True(t, IsStoreNotFound(ErrStoreNotFound))
	// NOT_FOUND 属于 store 模块，其他模块的同码错误不混淆
	other := NewDomainError(ModuleMatrix, ErrorCodeNotFound, "x")
	assert.False(t, IsStoreNotFound(other))
}
