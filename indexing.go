package xarray

// chunkProjection maps the items of one chunk onto an output array. It can
// be used to load a chunk into the output array, or to gather values from
// an array into a chunk before storing it
type chunkProjection struct {
	// Indices of chunk in the chunk grid
	ChunkCoords []int
	// Flat positions within the chunk, one per selected item
	ChunkSelection []int
	// Flat positions within the output array, parallel to ChunkSelection
	OutSelection []int
}

// chunkGrid returns the number of chunks along each axis
func chunkGrid(shape, chunks []int) []int {
	grid := make([]int, len(shape))
	for i := range shape {
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}
	return grid
}

// projectChunk computes the projection of the chunk at coords. Items of
// edge chunks that fall outside the array are left out
func projectChunk(shape, chunks, coords []int) chunkProjection {
	p := chunkProjection{ChunkCoords: append([]int(nil), coords...)}
	global := make([]int, len(shape))
	forEachIndex(chunks, func(local []int) {
		for d := range local {
			global[d] = coords[d]*chunks[d] + local[d]
			if global[d] >= shape[d] {
				return
			}
		}
		p.ChunkSelection = append(p.ChunkSelection, flatIndex(chunks, local))
		p.OutSelection = append(p.OutSelection, flatIndex(shape, global))
	})
	return p
}

// forEachIndex calls fn with every index of an array of the given shape in
// row-major order. fn must not retain idx
func forEachIndex(shape []int, fn func(idx []int)) {
	for _, s := range shape {
		if s == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	for {
		fn(idx)
		d := len(shape) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

func flatIndex(shape, idx []int) int {
	flat := 0
	for i, ix := range idx {
		flat = flat*shape[i] + ix
	}
	return flat
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
