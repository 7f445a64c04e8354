package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlloc(t *testing.T) {
	a := New(48)
	assert.Equal(t, uint64(48), a.EOFAddr())

	assert.Equal(t, uint64(48), a.Alloc(100))
	assert.Equal(t, uint64(148), a.Alloc(8))
	assert.Equal(t, uint64(156), a.EOFAddr())

	// Empty signals still get an address but take no space.
	assert.Equal(t, uint64(156), a.Alloc(0))
	assert.Equal(t, uint64(156), a.EOFAddr())

	assert.Equal(t, Stats{TotalAllocations: 2, TotalBytesAlloc: 108, LargestAlloc: 100}, a.Stats())
	require.NoError(t, a.Validate())
}

func TestValidate(t *testing.T) {
	a := New(96)
	for i := 0; i < 50; i++ {
		a.Alloc(uint64(i%7 + 1))
	}
	require.NoError(t, a.Validate())

	overlap := New(96)
	overlap.Alloc(10)
	overlap.blocks = append(overlap.blocks, Block{Addr: 100, Size: 4})
	assert.ErrorContains(t, overlap.Validate(), "overlaps")

	below := New(96)
	below.blocks = append(below.blocks, Block{Addr: 10, Size: 4})
	assert.Error(t, below.Validate())

	past := New(96)
	past.Alloc(10)
	past.eof = 100
	assert.ErrorContains(t, past.Validate(), "past end of file")
}
