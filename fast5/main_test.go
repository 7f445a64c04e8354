package fast5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// buildFile creates an HDF5 file at path and hands its root to fill.
func buildFile(t *testing.T, path string, fill func(root *hdf5.Group)) {
	t.Helper()
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	fill(f.Root())
	require.NoError(t, f.Close())
}

func mustGroup(t *testing.T, parent *hdf5.Group, name string) *hdf5.Group {
	t.Helper()
	g, err := parent.RequireGroup(name)
	require.NoError(t, err)
	return g
}

func mustAttr(t *testing.T, g *hdf5.Group, name string, value interface{}) {
	t.Helper()
	require.NoError(t, g.SetAttr(name, value))
}

// multiReadFixture writes one multi-read read named id under root and
// returns its channel_id group for the caller to populate.
func multiReadFixture(t *testing.T, root *hdf5.Group, id string, samples []int16) *hdf5.Group {
	t.Helper()
	read := mustGroup(t, root, "read_"+id)
	mustAttr(t, read, "run_id", "run-"+id)
	raw := mustGroup(t, read, "Raw")
	mustAttr(t, raw, "read_id", id)
	mustAttr(t, raw, "read_number", int32(1))
	mustAttr(t, raw, "duration", uint32(len(samples)))
	_, err := raw.CreateDataset("Signal", samples)
	require.NoError(t, err)
	ch := mustGroup(t, read, "channel_id")
	mustAttr(t, ch, "sampling_rate", 4000.0)
	return ch
}

// singleReadFixture writes a single-read layout without any file_type
// attribute.
func singleReadFixture(t *testing.T, root *hdf5.Group, id string, samples []int16) {
	t.Helper()
	reads := mustGroup(t, mustGroup(t, root, "Raw"), "Reads")
	rd := mustGroup(t, reads, "Read_7")
	mustAttr(t, rd, "read_id", id)
	mustAttr(t, rd, "read_number", int32(7))
	mustAttr(t, rd, "duration", uint32(len(samples)))
	_, err := rd.CreateDataset("Signal", samples)
	require.NoError(t, err)
	key := mustGroup(t, root, "UniqueGlobalKey")
	mustAttr(t, mustGroup(t, key, "channel_id"), "sampling_rate", 5000.0)
}

func writeGarbage(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("this is not an HDF5 container at all"), 0o644))
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
