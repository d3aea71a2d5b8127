package vfs

import (
	"context"

	"github.com/lifo-sh/lifo/internal/contentstore"
)

// ReadFile returns the full byte content of the file at path, resolving
// inline data, a chunk manifest, or delegating to whichever provider
// routing selects.
func (v *VFS) ReadFile(path string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		b, err := vp.ReadFile(sub)
		if err != nil {
			return nil, translateVirtualErr(err, path)
		}
		return b, nil
	case routeMount:
		b, err := mp.ReadFile(sub)
		if err != nil {
			return nil, translateMountErr(err, path)
		}
		return b, nil
	default:
		n, err := v.resolve(path)
		if err != nil {
			return nil, err
		}
		if n.IsDir() {
			return nil, errIsDir(path)
		}
		return v.readInodeBytes(path, n)
	}
}

// ReadFileString is ReadFile with a string conversion, the common case
// for shell builtins and command substitution.
func (v *VFS) ReadFileString(path string) (string, error) {
	b, err := v.ReadFile(path)
	return string(b), err
}

// readInodeBytes materializes a file inode's content, reassembling a
// chunk manifest through the content store when the file was auto-
// chunked. If the LRU has evicted one of the chunks, it falls back to
// the inode's cold-tier BlobRef (when one is wired and populated)
// before giving up with EINVAL.
func (v *VFS) readInodeBytes(path string, n *Inode) ([]byte, error) {
	if n.Chunks == nil {
		return append([]byte(nil), n.Data...), nil
	}
	if v.store == nil {
		return nil, errInvalid(path, "content store unavailable for chunked file")
	}
	if b, ok := v.store.LoadChunked(toStoreRefs(n.Chunks)); ok {
		return b, nil
	}
	if n.BlobRef != "" && v.blobs != nil {
		if b, err := v.blobs.Get(context.Background(), n.BlobRef); err == nil && b != nil {
			return b, nil
		}
	}
	return nil, errInvalid(path, "chunk evicted from content store")
}

func toStoreRefs(refs []ChunkRef) []contentstore.ChunkRef {
	out := make([]contentstore.ChunkRef, len(refs))
	for i, r := range refs {
		out[i] = contentstore.ChunkRef{Hash: r.Hash, Size: r.Size}
	}
	return out
}
