// Package contentstore implements the synchronous, content-addressed,
// LRU-bounded blob cache: dedupe-by-hash storage,
// fixed-size chunking of large files, and byte-budget LRU eviction keyed
// by a monotonic access counter rather than wall-clock time.
package contentstore

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	// CHUNKThreshold is the size at or above which a file is split into
	// chunks instead of being stored inline.
	CHUNKThreshold = 1 << 20 // 1 MiB

	// ChunkSize is the size of every chunk except possibly the last.
	ChunkSize = 256 << 10 // 256 KiB

	// DefaultMaxBytes is the default LRU byte budget.
	DefaultMaxBytes = 64 << 20 // 64 MiB
)

// ChunkRef identifies one chunk of a chunked file's manifest.
type ChunkRef struct {
	Hash string
	Size int64
}

// ContentStore is a synchronous, in-memory, content-addressed cache with
// an LRU byte budget. All methods are safe for concurrent use, though
// lifo's single-writer execution model never actually contends it.
type ContentStore struct {
	mu         sync.Mutex
	lru        *lru.LRU[string, []byte]
	maxBytes   int64
	totalBytes int64
	logger     *slog.Logger
}

// New constructs a ContentStore with the given byte budget. maxBytes <= 0
// selects DefaultMaxBytes.
func New(maxBytes int64, logger *slog.Logger) *ContentStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	cs := &ContentStore{maxBytes: maxBytes, logger: logger}
	// A huge count bound: count-based eviction is disabled, eviction is
	// driven entirely by our own byte-budget sweep below. onEvict keeps
	// totalBytes in sync whichever path removes an entry.
	l, err := lru.NewLRU[string, []byte](1<<31-1, func(key string, value []byte) {
		cs.totalBytes -= int64(len(value))
	})
	if err != nil {
		panic(fmt.Sprintf("contentstore: unreachable LRU construction error: %v", err))
	}
	cs.lru = l
	return cs
}

// Put stores bytes, deduping by hash and refreshing recency on a hit. It
// returns the content hash.
func (cs *ContentStore) Put(b []byte) string {
	h := Hash(b)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := cs.lru.Get(h); ok {
		// Get already refreshed recency; dedupe, no byte accounting change.
		return h
	}
	stored := append([]byte(nil), b...)
	cs.lru.Add(h, stored)
	cs.totalBytes += int64(len(stored))
	cs.evictLocked()
	return h
}

// Get retrieves bytes by hash, refreshing recency on hit. It never
// evicts. The returned slice is a defensive copy.
func (cs *ContentStore) Get(hash string) ([]byte, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b, ok := cs.lru.Get(hash)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Has reports presence without affecting recency.
func (cs *ContentStore) Has(hash string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lru.Contains(hash)
}

// Delete removes an entry explicitly.
func (cs *ContentStore) Delete(hash string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lru.Remove(hash)
}

// evictLocked evicts strictly-oldest-first entries until total bytes is
// back under budget. Must be called with cs.mu held.
func (cs *ContentStore) evictLocked() {
	for cs.totalBytes > cs.maxBytes && cs.lru.Len() > 0 {
		key, _, ok := cs.lru.RemoveOldest()
		if !ok {
			break
		}
		cs.logger.Debug("contentstore evicted chunk", "hash", key)
	}
}

// StoreChunked splits b into fixed ChunkSize chunks (the last may be
// shorter), stores each, and returns the resulting manifest in order.
func (cs *ContentStore) StoreChunked(b []byte) []ChunkRef {
	refs := make([]ChunkRef, 0, (len(b)+ChunkSize-1)/ChunkSize)
	for off := 0; off < len(b); off += ChunkSize {
		end := off + ChunkSize
		if end > len(b) {
			end = len(b)
		}
		chunk := b[off:end]
		h := cs.Put(chunk)
		refs = append(refs, ChunkRef{Hash: h, Size: int64(len(chunk))})
	}
	return refs
}

// LoadChunked reassembles a file from its chunk manifest, preserving byte
// order and exact length. It returns (nil, false) if any chunk is
// missing (orphaned by eviction), signalling the caller to escalate to
// the cold BlobStore.
func (cs *ContentStore) LoadChunked(refs []ChunkRef) ([]byte, bool) {
	var total int64
	for _, r := range refs {
		total += r.Size
	}
	out := make([]byte, 0, total)
	for _, r := range refs {
		b, ok := cs.Get(r.Hash)
		if !ok {
			return nil, false
		}
		out = append(out, b...)
	}
	return out, true
}
