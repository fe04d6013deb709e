package xarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkGrid(t *testing.T) {
	assert.Equal(t, []int{3, 2}, chunkGrid([]int{5, 4}, []int{2, 3}))
	assert.Equal(t, []int{}, chunkGrid([]int{}, []int{}))
}

func TestProjectChunkEdge(t *testing.T) {
	// last chunk of a 5x4 array chunked 2x3 holds a single row and column
	p := projectChunk([]int{5, 4}, []int{2, 3}, []int{2, 1})
	assert.Equal(t, []int{2, 1}, p.ChunkCoords)
	assert.Equal(t, []int{0}, p.ChunkSelection)
	assert.Equal(t, []int{19}, p.OutSelection)

	p = projectChunk([]int{5, 4}, []int{2, 3}, []int{0, 0})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, p.ChunkSelection)
	assert.Equal(t, []int{0, 1, 2, 4, 5, 6}, p.OutSelection)
}

func TestForEachIndex(t *testing.T) {
	var got [][]int
	forEachIndex([]int{2, 2}, func(idx []int) {
		got = append(got, append([]int(nil), idx...))
	})
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, got)

	calls := 0
	forEachIndex([]int{3, 0}, func([]int) { calls++ })
	assert.Equal(t, 0, calls)

	// a 0-d shape visits the single empty index
	forEachIndex([]int{}, func([]int) { calls++ })
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, product(nil))
}
