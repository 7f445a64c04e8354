package hdf5

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenNotHDF5(t *testing.T) {
	signature := []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"text", []byte("channel,read_id,signal\n")},
		{"garbage", bytes.Repeat([]byte{0xff}, 1024)},
		{"almost signature", []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, 'X'}},
		{"signature only", signature},
		{"truncated superblock", append(append([]byte{}, signature...), 0x02, 0x08, 0x08, 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.h5")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			_, err := Open(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotHDF5), "%v", err)
		})
	}
}

func TestOpenMissingOrDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.h5"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, ErrNotHDF5))

	_, err = Open(t.TempDir())
	require.Error(t, err)
}

func TestCreateAndReopen(t *testing.T) {
	path := build(t, func(root *Group) {
		require.NoError(t, root.SetAttr("file_type", "single-read"))
	})

	f := reopen(t, path)
	assert.Equal(t, 3, f.Version())
	assert.Equal(t, path, f.Path())
	assert.False(t, f.IsWritable())
	assert.Equal(t, "/", f.Root().Path())
	assert.Equal(t, "/", f.Root().Name())

	v, err := f.ReadAttr("/@file_type")
	require.NoError(t, err)
	assert.Equal(t, "single-read", v)
}

func TestCreateWithSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.h5")
	f, err := Create(path, WithOffsetSize(4), WithLengthSize(4))
	require.NoError(t, err)
	assert.True(t, f.IsWritable())
	require.NoError(t, f.Close())

	r := reopen(t, path)
	assert.Equal(t, uint8(4), r.superblock.OffsetSize)
	assert.Equal(t, uint8(4), r.superblock.LengthSize)
}

func TestFlushTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flush.h5")
	f, err := Create(path)
	require.NoError(t, err)

	group(t, f.Root(), "Raw")
	require.NoError(t, f.Flush())
	group(t, f.Root(), "UniqueGlobalKey")
	require.NoError(t, f.Flush())
	assert.Positive(t, f.AllocStats().TotalAllocations)
	require.NoError(t, f.Close())

	names, err := reopen(t, path).Root().Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"Raw", "UniqueGlobalKey"}, names)
}

func TestClose(t *testing.T) {
	path := build(t, func(root *Group) { group(t, root, "Raw") })

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.OpenGroup("/Raw")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.OpenDataset("/Raw/Signal")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.GetAttr("/@file_type")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.WalkAttrs(func(AttrInfo) error { return nil }), ErrClosed)
}

func TestReadOnlyFile(t *testing.T) {
	f := reopen(t, readLayout(t))

	_, err := f.Root().CreateGroup("extra")
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, f.Root().SetAttr("x", 1), ErrReadOnly)
}

func TestLoggerAndQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	path := filepath.Join(t.TempDir(), "logged.h5")
	f, err := Create(path, WithLogger(log))
	require.NoError(t, err)
	assert.Same(t, log, f.Logger())

	restore := f.Quiet()
	require.NoError(t, f.Flush())
	assert.Zero(t, logs.Len())
	restore()

	require.NoError(t, f.Close())
	assert.Equal(t, 1, logs.FilterMessage("flushed file").Len())
}
