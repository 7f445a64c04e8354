package hdf5

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// build creates a file, lets fill populate it and closes it. It returns the
// path of the finished file.
func build(t *testing.T, fill func(root *Group)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.h5")
	f, err := Create(path)
	require.NoError(t, err)
	fill(f.Root())
	require.NoError(t, f.Close())
	return path
}

// reopen opens path for reading and closes it when the test ends.
func reopen(t *testing.T, path string, opts ...OpenOption) *File {
	t.Helper()
	f, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func group(t *testing.T, parent *Group, name string) *Group {
	t.Helper()
	g, err := parent.CreateGroup(name)
	require.NoError(t, err)
	return g
}

// readLayout mimics a multi-read container: two read groups, each with a
// Raw subgroup carrying attributes and a Signal dataset.
func readLayout(t *testing.T) string {
	t.Helper()
	return build(t, func(root *Group) {
		require.NoError(t, root.SetAttr("file_type", "multi-read"))
		require.NoError(t, root.SetAttr("file_version", "2.2"))
		for i, id := range []string{"a", "b"} {
			rd := group(t, root, "read_"+id)
			require.NoError(t, rd.SetAttr("run_id", VarLenString("run1")))
			raw := group(t, rd, "Raw")
			require.NoError(t, raw.SetAttr("read_id", VarLenString(id)))
			require.NoError(t, raw.SetAttr("read_number", int32(i+1)))
			require.NoError(t, raw.SetAttr("duration", uint32(10*(i+1))))
			_, err := raw.CreateDataset("Signal", make([]int16, 10*(i+1)))
			require.NoError(t, err)
			ch := group(t, rd, "channel_id")
			require.NoError(t, ch.SetAttr("sampling_rate", 4000.0))
		}
	})
}
