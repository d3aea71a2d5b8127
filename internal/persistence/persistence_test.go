package persistence

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lifo-sh/lifo/internal/blobstore"
	"github.com/lifo-sh/lifo/internal/contentstore"
	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVFS(t *testing.T) *vfs.VFS {
	t.Helper()
	return vfs.New(contentstore.New(0, nil), nil)
}

func TestSnapshotRoundTrip(t *testing.T) {
	v := newTestVFS(t)
	require.NoError(t, v.Mkdir("/a/b", vfs.MkdirOptions{Recursive: true}))
	require.NoError(t, v.WriteFile("/a/b/c.txt", []byte("hello")))

	snap := Snapshot(v.GetRoot(), nil)
	root, err := Load(snap)
	require.NoError(t, err)

	v2 := newTestVFS(t)
	v2.LoadRoot(root)

	b, err := v2.ReadFile("/a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestSnapshotExcludesVirtualPrefixes(t *testing.T) {
	v := newTestVFS(t)
	require.NoError(t, v.Mkdir("/proc", vfs.MkdirOptions{Recursive: true}))
	require.NoError(t, v.WriteFile("/home.txt", []byte("x")))

	snap := Snapshot(v.GetRoot(), []string{"/proc"})
	root, err := Load(snap)
	require.NoError(t, err)

	v2 := newTestVFS(t)
	v2.LoadRoot(root)
	assert.True(t, v2.Exists("/home.txt"))
	assert.False(t, v2.Exists("/proc"))
}

func TestManagerDebouncesSaves(t *testing.T) {
	v := newTestVFS(t)
	store := blobstore.NewMemory()
	require.NoError(t, store.Open(context.Background()))
	m := NewManager(v, store, nil)
	m.debounce = 20 * time.Millisecond

	require.NoError(t, v.WriteFile("/a.txt", []byte("1")))
	m.ScheduleSave()
	require.NoError(t, v.WriteFile("/a.txt", []byte("2")))
	m.ScheduleSave()

	time.Sleep(80 * time.Millisecond)

	b, err := store.LoadTree(context.Background())
	require.NoError(t, err)
	require.NotNil(t, b)

	root, err := Load(b)
	require.NoError(t, err)
	v2 := newTestVFS(t)
	v2.LoadRoot(root)
	content, err := v2.ReadFile("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "2", string(content))
}

func TestManagerLoadMissingSnapshotIsNoop(t *testing.T) {
	v := newTestVFS(t)
	store := blobstore.NewMemory()
	require.NoError(t, store.Open(context.Background()))
	m := NewManager(v, store, nil)
	require.NoError(t, m.Load(context.Background()))
	assert.True(t, v.Exists("/"))
}

func TestExportImportRoundTrip(t *testing.T) {
	v := newTestVFS(t)
	require.NoError(t, v.Mkdir("/dir", vfs.MkdirOptions{Recursive: true}))
	require.NoError(t, v.WriteFile("/dir/f.txt", []byte("payload")))
	require.NoError(t, v.WriteFile("/top.txt", []byte("top")))

	var buf bytes.Buffer
	require.NoError(t, Export(v, &buf, true))

	v2 := newTestVFS(t)
	require.NoError(t, Import(v2, &buf, true))

	b, err := v2.ReadFile("/dir/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	b2, err := v2.ReadFile("/top.txt")
	require.NoError(t, err)
	assert.Equal(t, "top", string(b2))
}
