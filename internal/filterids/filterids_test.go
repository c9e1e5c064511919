package filterids_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/powermon/internal/filterids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	assert.Equal(t, "/var/lib/powermon/filter_ids.txt", filterids.Path("/var/lib/powermon/powermon.db"))
}

func TestReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter_ids.txt")
	require.NoError(t, os.WriteFile(path, []byte(" 23992757, 00459823 ,\n"), 0o644))

	ids := filterids.Read(path)
	assert.Equal(t, []string{"23992757", "00459823"}, ids)
}

func TestReadEmptyFileMeansDiscovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter_ids.txt")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	// Env var must not override an existing (empty) file
	t.Setenv("POWERMON_FILTER_IDS", "11111111")

	assert.Empty(t, filterids.Read(path))
}

func TestReadEnvFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter_ids.txt")
	t.Setenv("POWERMON_FILTER_IDS", "23992757,00459823")

	ids := filterids.Read(path)
	assert.Equal(t, []string{"23992757", "00459823"}, ids)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter_ids.txt")

	require.NoError(t, filterids.Write(path, []string{"23992757", "00459823"}))
	assert.Equal(t, []string{"23992757", "00459823"}, filterids.Read(path))

	require.NoError(t, filterids.Write(path, nil))
	assert.Empty(t, filterids.Read(path))
}
