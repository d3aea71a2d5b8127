package vfs

import (
	"bytes"
	"testing"

	"github.com/lifo-sh/lifo/internal/contentstore"
	"github.com/lifo-sh/lifo/internal/mountprovider"
	"github.com/lifo-sh/lifo/internal/vprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVFS() *VFS {
	return New(contentstore.New(8<<20, nil), nil)
}

func TestWriteReadRoundTrip(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/a.txt", []byte("hello")))
	b, err := v.ReadFile("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestWriteFirstTimeFiresCreate(t *testing.T) {
	v := newTestVFS()
	var got []Event
	v.Watch("", func(e Event) { got = append(got, e) })
	require.NoError(t, v.WriteFile("/a.txt", []byte("x")))
	require.Len(t, got, 1)
	assert.Equal(t, EventCreate, got[0].Type)
}

func TestWriteExistingFiresModify(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/a.txt", []byte("x")))
	var got []Event
	v.Watch("", func(e Event) { got = append(got, e) })
	require.NoError(t, v.WriteFile("/a.txt", []byte("y")))
	require.Len(t, got, 1)
	assert.Equal(t, EventModify, got[0].Type)
}

func TestChunkingBoundary(t *testing.T) {
	v := newTestVFS()

	inline := bytes.Repeat([]byte("a"), contentstore.CHUNKThreshold-1)
	require.NoError(t, v.WriteFile("/inline.bin", inline))
	st, err := v.Stat("/inline.bin")
	require.NoError(t, err)
	assert.EqualValues(t, len(inline), st.Size)

	chunked := bytes.Repeat([]byte("b"), contentstore.CHUNKThreshold)
	require.NoError(t, v.WriteFile("/chunked.bin", chunked))
	b, err := v.ReadFile("/chunked.bin")
	require.NoError(t, err)
	assert.Equal(t, chunked, b)

	n, err := v.resolve("/chunked.bin")
	require.NoError(t, err)
	assert.NotNil(t, n.Chunks)
	assert.Nil(t, n.Data)

	wantChunks := (len(chunked) + contentstore.ChunkSize - 1) / contentstore.ChunkSize
	assert.Len(t, n.Chunks, wantChunks)
}

func TestPathNormalizationEquivalence(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.Mkdir("/a/b", MkdirOptions{Recursive: true}))
	require.NoError(t, v.WriteFile("/a/b/../b/c.txt", []byte("x")))
	assert.True(t, v.Exists("/a/b/c.txt"))
}

func TestRenameFiresExactlyOneEvent(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/a.txt", []byte("x")))
	var got []Event
	v.Watch("", func(e Event) { got = append(got, e) })
	require.NoError(t, v.Rename("/a.txt", "/b.txt"))
	require.Len(t, got, 1)
	assert.Equal(t, EventRename, got[0].Type)
	assert.Equal(t, "/a.txt", got[0].OldPath)
	assert.Equal(t, "/b.txt", got[0].Path)
	assert.False(t, v.Exists("/a.txt"))
	assert.True(t, v.Exists("/b.txt"))
}

func TestRmdirNonEmptyFailsThenRecursiveSucceeds(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.Mkdir("/d", MkdirOptions{}))
	require.NoError(t, v.WriteFile("/d/f.txt", []byte("x")))

	err := v.Rmdir("/d", false)
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, ENOTEMPTY, vErr.Code)

	require.NoError(t, v.Rmdir("/d", true))
	assert.False(t, v.Exists("/d"))
}

func TestReaddirOnFileFailsWithENOTDIR(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/a.txt", []byte("x")))
	_, err := v.Readdir("/a.txt")
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, ENOTDIR, vErr.Code)
}

func TestMountProviderEscapePrevention(t *testing.T) {
	v := newTestVFS()
	dir := t.TempDir()
	v.RegisterMountProvider("/mnt", mountprovider.NewNativeFsProvider(dir, false))
	_, err := v.ReadFile("/mnt/../../etc/passwd")
	require.Error(t, err)
}

func TestMimeDetectionOnWrite(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/x.json", []byte("{}")))
	st, err := v.Stat("/x.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", st.Mime)
	assert.Equal(t, "text", st.Category)
}

func TestMtimeMonotonic(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/a.txt", []byte("1")))
	st1, err := v.Stat("/a.txt")
	require.NoError(t, err)
	require.NoError(t, v.WriteFile("/a.txt", []byte("2")))
	st2, err := v.Stat("/a.txt")
	require.NoError(t, err)
	assert.False(t, st2.Mtime.Before(st1.Mtime))
}

func TestCopyFileLeavesSourceIntact(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.WriteFile("/a.txt", []byte("x")))
	require.NoError(t, v.CopyFile("/a.txt", "/b.txt"))
	assert.True(t, v.Exists("/a.txt"))
	b, err := v.ReadFile("/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))
}

func TestAppendFileCreatesThenAppends(t *testing.T) {
	v := newTestVFS()
	require.NoError(t, v.AppendFile("/log.txt", []byte("a")))
	require.NoError(t, v.AppendFile("/log.txt", []byte("b")))
	b, err := v.ReadFile("/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "ab", string(b))
}

func TestVirtualProviderServesReadsAndRejectsWrites(t *testing.T) {
	v := newTestVFS()
	v.RegisterVirtualProvider("/proc", vprovider.NewProcProvider("lifo", nil))

	b, err := v.ReadFile("/proc/uptime")
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	err = v.WriteFile("/proc/uptime", []byte("override"))
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, EINVAL, vErr.Code)

	// The provider still answers even though nothing at /proc exists
	// in the in-memory tree.
	assert.True(t, v.Exists("/proc/uptime"))
}

func TestVirtualProvidersExcludedFromExportPrefixes(t *testing.T) {
	v := newTestVFS()
	v.RegisterVirtualProvider("/proc", nil)
	prefixes := v.virtualPrefixes()
	assert.Contains(t, prefixes, "/proc")
}
