package contentstore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	cs := New(0, nil)
	h := cs.Put([]byte("hello"))
	b, ok := cs.Get(h)
	require.True(t, ok)
	assert.Equal(t, "hello", string(b))
}

func TestPutDedupes(t *testing.T) {
	cs := New(0, nil)
	h1 := cs.Put([]byte("same"))
	h2 := cs.Put([]byte("same"))
	assert.Equal(t, h1, h2)
}

func TestGetMissing(t *testing.T) {
	cs := New(0, nil)
	_, ok := cs.Get("deadbeefdeadbeef")
	assert.False(t, ok)
}

func TestLRUEvictsOldestFirst(t *testing.T) {
	// Budget fits exactly two 10-byte blobs.
	cs := New(20, nil)
	h1 := cs.Put(bytes.Repeat([]byte("a"), 10))
	h2 := cs.Put(bytes.Repeat([]byte("b"), 10))
	h3 := cs.Put(bytes.Repeat([]byte("c"), 10))

	_, ok1 := cs.Get(h1)
	_, ok2 := cs.Get(h2)
	_, ok3 := cs.Get(h3)
	assert.False(t, ok1, "oldest entry should have been evicted")
	assert.True(t, ok2)
	assert.True(t, ok3)
}

func TestGetRefreshesRecency(t *testing.T) {
	cs := New(20, nil)
	h1 := cs.Put(bytes.Repeat([]byte("a"), 10))
	h2 := cs.Put(bytes.Repeat([]byte("b"), 10))

	// Touch h1 so h2 becomes the oldest.
	_, _ = cs.Get(h1)

	cs.Put(bytes.Repeat([]byte("c"), 10))

	_, ok1 := cs.Get(h1)
	_, ok2 := cs.Get(h2)
	assert.True(t, ok1, "recently read entry should survive eviction")
	assert.False(t, ok2, "stale entry should be evicted")
}

func TestDeleteExplicit(t *testing.T) {
	cs := New(0, nil)
	h := cs.Put([]byte("x"))
	cs.Delete(h)
	_, ok := cs.Get(h)
	assert.False(t, ok)
}

func TestChunkedRoundTrip(t *testing.T) {
	cs := New(0, nil)
	data := bytes.Repeat([]byte("0123456789"), ChunkSize/5) // > one chunk
	refs := cs.StoreChunked(data)
	assert.Greater(t, len(refs), 1)

	got, ok := cs.LoadChunked(refs)
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestChunkedMissingChunkSurfacesAsMissing(t *testing.T) {
	cs := New(0, nil)
	data := bytes.Repeat([]byte{0xAB}, ChunkSize*2+17)
	refs := cs.StoreChunked(data)
	cs.Delete(refs[0].Hash)

	_, ok := cs.LoadChunked(refs)
	assert.False(t, ok)
}

func TestChunkSizes(t *testing.T) {
	cs := New(0, nil)
	data := make([]byte, ChunkSize*2+1)
	refs := cs.StoreChunked(data)
	require.Len(t, refs, 3)
	assert.EqualValues(t, ChunkSize, refs[0].Size)
	assert.EqualValues(t, ChunkSize, refs[1].Size)
	assert.EqualValues(t, 1, refs[2].Size)
}
