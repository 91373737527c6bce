package ints

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptySet(t *testing.T) {
	var s Set
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(0))
	assert.False(t, s.Contains(-1))
	assert.Empty(t, s.ToSlice())
}

func TestAddRemove(t *testing.T) {
	s := NewSet(3, 70, 0, -2)
	assert.Equal(t, []int{0, 3, 70}, s.ToSlice())
	assert.True(t, s.Contains(70))
	assert.False(t, s.Contains(69))
	assert.False(t, s.Contains(1000))

	s.Remove(3, 1000)
	assert.Equal(t, []int{0, 70}, s.ToSlice())
	assert.Equal(t, 2, s.Len())

	s.Remove(0, 70)
	assert.True(t, s.IsEmpty())
}

func TestChunkBoundaries(t *testing.T) {
	items := []int{chunkSize - 1, chunkSize, chunkSize*2 + 1}
	s := NewSet(items...)
	for _, item := range items {
		assert.True(t, s.Contains(item), "item %d", item)
	}
	assert.Equal(t, items, s.ToSlice())
}
