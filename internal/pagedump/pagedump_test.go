package pagedump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.html"), []byte("old run"), 0600))

	out, err := New(dir)
	require.NoError(t, err)
	require.True(t, out.Enabled())

	out.Write(Name(2), "<html>2</html>")
	out.Write(Name(1), "<html>1</html>")
	out.Write(Name(10), "<html>10</html>")

	files, err := List(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "page-001.html"),
		filepath.Join(dir, "page-002.html"),
		filepath.Join(dir, "page-010.html"),
	}, files)

	contents, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.Equal(t, "<html>1</html>", string(contents))
}

func TestDisabledOutput(t *testing.T) {
	out, err := New("")
	require.NoError(t, err)
	require.False(t, out.Enabled())
	out.Write(Name(1), "<html></html>")
}
