package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandGridCartesianProduct(t *testing.T) {
	combos := expandGrid(map[string][]any{
		"short": {5, 10},
		"long":  {20, 30, 40},
	})

	require.Len(t, combos, 6)
	// 按参数名字典序展开，顺序确定
	assert.Equal(t, map[string]any{"long": 20, "short": 5}, combos[0])
	assert.Equal(t, map[string]any{"long": 20, "short": 10}, combos[1])
	assert.Equal(t, map[string]any{"long": 30, "short": 5}, combos[2])
	assert.Equal(t, map[string]any{"long": 40, "short": 10}, combos[5])
}

func TestExpandGridSingleParam(t *testing.T) {
	combos := expandGrid(map[string][]any{"window": {10, 20, 30}})
	require.Len(t, combos, 3)
	assert.Equal(t, map[string]any{"window": 10}, combos[0])
}

func TestExpandGridDeterministic(t *testing.T) {
	grid := map[string][]any{
		"a": {1, 2},
		"b": {3, 4},
		"c": {5},
	}
	first := expandGrid(grid)
	second := expandGrid(grid)
	assert.Equal(t, first, second)
}

func TestExpandGridEmptyValuesSkipped(t *testing.T) {
	combos := expandGrid(map[string][]any{
		"a": {},
		"b": {1, 2},
	})
	require.Len(t, combos, 2)
	_, ok := combos[0]["a"]
	assert.False(t, ok)
}
