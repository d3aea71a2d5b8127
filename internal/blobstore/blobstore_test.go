package blobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryToleratesCallsBeforeOpen(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	b, err := m.Get(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, b)

	has, err := m.Has(ctx, "x")
	require.NoError(t, err)
	assert.False(t, has)

	assert.NoError(t, m.Put(ctx, "x", []byte("data")))
	assert.NoError(t, m.Delete(ctx, "x"))
}

func TestMemoryPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Open(ctx))
	require.NoError(t, m.Put(ctx, "h1", []byte("payload")))

	b, err := m.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
}

func TestMemoryPutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Open(ctx))
	require.NoError(t, m.Put(ctx, "h1", []byte("first")))
	require.NoError(t, m.Put(ctx, "h1", []byte("second")))

	b, _ := m.Get(ctx, "h1")
	assert.Equal(t, "first", string(b))
}

func TestDurableRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := NewDurable(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, d.Open(ctx))
	require.NoError(t, d.Put(ctx, "abc", []byte("hello")))

	has, err := d.Has(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, has)

	b, err := d.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, d.Delete(ctx, "abc"))
	has, err = d.Has(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDurableTreeRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := NewDurable(t.TempDir())
	require.NoError(t, d.Open(ctx))
	require.NoError(t, d.SaveTree(ctx, []byte(`{"t":"d"}`)))

	got, err := d.LoadTree(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"d"}`, string(got))
}

func TestDurableLoadTreeMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	d := NewDurable(t.TempDir())
	require.NoError(t, d.Open(ctx))

	got, err := d.LoadTree(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
