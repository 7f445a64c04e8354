package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

func TestAttributeValues(t *testing.T) {
	path := build(t, func(root *Group) {
		g := group(t, root, "channel_id")
		require.NoError(t, g.SetAttr("channel_number", "42"))
		require.NoError(t, g.SetAttr("read_id", VarLenString("0f3c-aa")))
		require.NoError(t, g.SetAttr("read_number", int32(-7)))
		require.NoError(t, g.SetAttr("start_time", uint64(123456789)))
		require.NoError(t, g.SetAttr("start_mux", uint8(3)))
		require.NoError(t, g.SetAttr("sampling_rate", float32(4000)))
		require.NoError(t, g.SetAttr("range", 1467.61))
		require.NoError(t, g.SetAttr("pore_ids", []int32{1, 2, 3}))
		require.NoError(t, g.SetAttr("tags", []string{"rna", "kit"}))
	})
	f := reopen(t, path)

	tests := []struct {
		name string
		want interface{}
	}{
		{"channel_number", "42"},
		{"read_id", "0f3c-aa"},
		{"read_number", int64(-7)},
		{"start_time", uint64(123456789)},
		{"start_mux", uint64(3)},
		{"sampling_rate", float64(4000)},
		{"range", 1467.61},
		{"pore_ids", []int64{1, 2, 3}},
		{"tags", []string{"rna", "kit"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.ReadAttr("/channel_id@" + tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestAttributeIntrospection(t *testing.T) {
	path := build(t, func(root *Group) {
		require.NoError(t, root.SetAttr("fixed", "abc"))
		require.NoError(t, root.SetAttr("vlen", VarLenString("abc")))
		require.NoError(t, root.SetAttr("signed", int16(1)))
		require.NoError(t, root.SetAttr("unsigned", uint32(1)))
		require.NoError(t, root.SetAttr("list", []float64{1, 2}))
	})
	root := reopen(t, path).Root()

	fixed := root.Attr("fixed")
	require.NotNil(t, fixed)
	assert.True(t, fixed.IsString())
	assert.False(t, fixed.IsVarLenString())
	assert.Equal(t, 4, fixed.DtypeSize())
	assert.Equal(t, message.ClassString, fixed.DtypeClass())
	assert.True(t, fixed.IsScalar())
	assert.Nil(t, fixed.Shape())
	assert.Equal(t, []byte("abc\x00"), fixed.Bytes())

	vlen := root.Attr("vlen")
	require.NotNil(t, vlen)
	assert.True(t, vlen.IsString())
	assert.True(t, vlen.IsVarLenString())
	assert.Equal(t, message.ClassVarLen, vlen.DtypeClass())

	assert.True(t, root.Attr("signed").IsSigned())
	assert.False(t, root.Attr("unsigned").IsSigned())
	assert.Equal(t, 4, root.Attr("unsigned").DtypeSize())

	list := root.Attr("list")
	assert.False(t, list.IsScalar())
	assert.Equal(t, []uint64{2}, list.Shape())
	assert.Equal(t, uint64(2), list.NumElements())
	vals, err := list.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vals)

	assert.True(t, root.HasAttr("list"))
	assert.False(t, root.HasAttr("missing"))
	assert.Nil(t, root.Attr("missing"))
}

func TestAttributeScalarConversions(t *testing.T) {
	path := build(t, func(root *Group) {
		require.NoError(t, root.SetAttr("digitisation", 8192.0))
		require.NoError(t, root.SetAttr("read_number", uint32(12)))
		require.NoError(t, root.SetAttr("file_version", "2.2"))
	})
	root := reopen(t, path).Root()

	d, err := root.Attr("digitisation").ReadScalarFloat64()
	require.NoError(t, err)
	assert.Equal(t, 8192.0, d)

	n, err := root.Attr("read_number").ReadScalarInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	s, err := root.Attr("file_version").ReadScalarString()
	require.NoError(t, err)
	assert.Equal(t, "2.2", s)
}

func TestSetAttrReplaces(t *testing.T) {
	path := build(t, func(root *Group) {
		require.NoError(t, root.SetAttr("file_version", "1.0"))
		require.NoError(t, root.SetAttr("file_type", "multi-read"))
		require.NoError(t, root.SetAttr("file_version", "2.2"))
	})
	f := reopen(t, path)

	assert.Equal(t, []string{"file_version", "file_type"}, f.Root().Attrs())
	v, err := f.ReadAttr("/@file_version")
	require.NoError(t, err)
	assert.Equal(t, "2.2", v)
}

func TestSetAttrErrors(t *testing.T) {
	build(t, func(root *Group) {
		assert.ErrorIs(t, root.SetAttr("", 1), ErrInvalidPath)
		assert.Error(t, root.SetAttr("nil", nil))
		assert.Error(t, root.SetAttr("none", []string{}))
		assert.Error(t, root.SetAttr("bad", struct{ A chan int }{}))
	})
}

func TestSetAttrRaw(t *testing.T) {
	path := build(t, func(root *Group) {
		g := group(t, root, "channel_id")
		require.NoError(t, g.SetAttrRaw("packed", message.NewOpaqueDatatype(8, "channel"),
			[]byte{0x09, 0, 0, 0, 0, 0, 0, 0}))
		require.NoError(t, g.SetAttrRaw("be", message.NewFixedPointDatatype(2, true, message.OrderBE),
			[]byte{0x01, 0x02}))

		err := g.SetAttrRaw("short", message.NewOpaqueDatatype(8, ""), []byte{1})
		assert.ErrorIs(t, err, ErrSizeMismatch)
		assert.ErrorIs(t, g.SetAttrRaw("", message.NewOpaqueDatatype(1, ""), []byte{1}), ErrInvalidPath)
	})
	f := reopen(t, path)

	packed, err := f.GetAttr("/channel_id@packed")
	require.NoError(t, err)
	assert.Equal(t, message.ClassOpaque, packed.DtypeClass())
	assert.Equal(t, []byte{0x09, 0, 0, 0, 0, 0, 0, 0}, packed.Bytes())

	v, err := f.ReadAttr("/channel_id@be")
	require.NoError(t, err)
	assert.Equal(t, int64(258), v)
}

func TestGetAttrErrors(t *testing.T) {
	f := reopen(t, readLayout(t))

	_, err := f.GetAttr("/read_a/Raw@missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.GetAttr("/read_z@run_id")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.GetAttr("/read_a/Raw")
	assert.ErrorIs(t, err, ErrInvalidPath)

	v, err := f.ReadAttr("/read_a/Raw/Signal@missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, v)
}
