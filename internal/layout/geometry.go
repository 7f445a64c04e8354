package layout

// grid returns the number of chunks along each dimension.
func grid(dims []uint64, chunk []uint32) []uint64 {
	g := make([]uint64, len(dims))
	for d := range dims {
		g[d] = (dims[d] + uint64(chunk[d]) - 1) / uint64(chunk[d])
	}
	return g
}

func product(v []uint64) uint64 {
	n := uint64(1)
	for _, x := range v {
		n *= x
	}
	return n
}

// chunkBytes is the unfiltered size of one full chunk.
func chunkBytes(chunk []uint32, elemSize uint64) uint64 {
	n := elemSize
	for _, c := range chunk {
		n *= uint64(c)
	}
	return n
}

// origin returns the element coordinates of chunk i, counting chunks in
// row-major order over the grid g.
func origin(i uint64, g []uint64, chunk []uint32) []uint64 {
	o := make([]uint64, len(g))
	for d := len(g) - 1; d >= 0; d-- {
		o[d] = (i % g[d]) * uint64(chunk[d])
		i /= g[d]
	}
	return o
}

// forEachRow calls fn once for every innermost row of the chunk at org
// that falls inside dims. ds and ch are byte offsets of the row in the
// dataset and in the chunk buffer; n is the row length in bytes.
func forEachRow(dims []uint64, chunk []uint32, org []uint64, elemSize uint64, fn func(ds, ch, n uint64)) {
	rank := len(dims)
	extent := make([]uint64, rank)
	for d := range dims {
		if org[d] >= dims[d] {
			return
		}
		extent[d] = min(uint64(chunk[d]), dims[d]-org[d])
	}

	dsStride := make([]uint64, rank)
	chStride := make([]uint64, rank)
	dsStride[rank-1], chStride[rank-1] = elemSize, elemSize
	for d := rank - 2; d >= 0; d-- {
		dsStride[d] = dsStride[d+1] * dims[d+1]
		chStride[d] = chStride[d+1] * uint64(chunk[d+1])
	}
	row := extent[rank-1] * elemSize

	pos := make([]uint64, rank)
	for {
		var ds, ch uint64
		for d := range pos {
			ds += (org[d] + pos[d]) * dsStride[d]
			ch += pos[d] * chStride[d]
		}
		fn(ds, ch, row)

		d := rank - 2
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < extent[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
