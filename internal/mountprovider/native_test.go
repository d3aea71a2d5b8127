package mountprovider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, readOnly bool) (*NativeFsProvider, string) {
	t.Helper()
	dir := t.TempDir()
	return NewNativeFsProvider(dir, readOnly), dir
}

func TestNativeWriteReadRoundTrip(t *testing.T) {
	n, _ := newProvider(t, false)
	require.NoError(t, n.WriteFile("/a.txt", []byte("hello")))
	b, err := n.ReadFile("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestNativeSandboxBlocksEscape(t *testing.T) {
	n, _ := newProvider(t, false)
	_, err := n.ReadFile("/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNativeSandboxAllowsNetNeutralTraversal(t *testing.T) {
	n, dir := newProvider(t, false)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, n.WriteFile("/a/b/../c.txt", []byte("x")))
	assert.True(t, n.Exists("/a/c.txt"))
}

func TestNativeReadOnlyRejectsWrite(t *testing.T) {
	n, _ := newProvider(t, true)
	err := n.WriteFile("/a.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNativeRmdirNonEmptyFails(t *testing.T) {
	n, _ := newProvider(t, false)
	require.NoError(t, n.Mkdir("/d", false))
	require.NoError(t, n.WriteFile("/d/f.txt", []byte("x")))
	err := n.Rmdir("/d", false)
	assert.ErrorIs(t, err, ErrNotEmpty)
}

func TestNativeRmdirRecursiveSucceeds(t *testing.T) {
	n, _ := newProvider(t, false)
	require.NoError(t, n.Mkdir("/d", false))
	require.NoError(t, n.WriteFile("/d/f.txt", []byte("x")))
	require.NoError(t, n.Rmdir("/d", true))
	assert.False(t, n.Exists("/d"))
}

func TestNativeRename(t *testing.T) {
	n, _ := newProvider(t, false)
	require.NoError(t, n.WriteFile("/a.txt", []byte("x")))
	require.NoError(t, n.Rename("/a.txt", "/b.txt"))
	assert.False(t, n.Exists("/a.txt"))
	assert.True(t, n.Exists("/b.txt"))
}

func TestNativeReaddirOnFileFails(t *testing.T) {
	n, _ := newProvider(t, false)
	require.NoError(t, n.WriteFile("/a.txt", []byte("x")))
	_, err := n.Readdir("/a.txt")
	assert.ErrorIs(t, err, ErrNotDir)
}
