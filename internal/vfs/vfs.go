// Package vfs implements the central synchronous VFS API:
// an in-memory inode tree that routes every operation to its own
// storage, a mounted host-filesystem provider, or a virtual provider,
// auto-chunks large writes into internal/contentstore, detects MIME
// from a fixed extension table, and emits exactly one event per
// mutation before returning.
package vfs

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lifo-sh/lifo/internal/blobstore"
	"github.com/lifo-sh/lifo/internal/contentstore"
	"github.com/lifo-sh/lifo/internal/mountprovider"
	"github.com/lifo-sh/lifo/internal/vprovider"
	"github.com/lifo-sh/lifo/internal/watch"
)

type virtualMount struct {
	prefix   string
	provider vprovider.Provider
}

type hostMount struct {
	prefix   string
	provider mountprovider.MountProvider
}

// VFS is the central synchronous filesystem API. All mutation happens
// under a single writer (the shell executor); mu exists for
// defense-in-depth, not because the design requires multi-writer
// safety.
type VFS struct {
	mu sync.Mutex

	root *Inode

	virtual []virtualMount
	mounts  []hostMount

	store *contentstore.ContentStore
	blobs blobstore.BlobStore

	watchers *watch.Registry[Event]
	logger   *slog.Logger

	lastMtime time.Time

	hostWatchStops []func() error
}

// SetBlobStore wires the cold-tier backend a chunked file's content
// falls back to when its chunks have been evicted from the
// ContentStore's LRU. Optional: a VFS with no BlobStore set simply
// raises EINVAL on an evicted read, the same as before this existed.
func (v *VFS) SetBlobStore(b blobstore.BlobStore) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blobs = b
}

// New constructs a VFS backed by store (which may be nil to disable
// chunking support, in which case every write is kept inline on its
// inode whatever its size — callers normally always supply one).
func New(store *contentstore.ContentStore, logger *slog.Logger) *VFS {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	v := &VFS{
		root:      NewDir("", 0o755, now),
		store:     store,
		logger:    logger,
		lastMtime: now,
	}
	v.watchers = watch.New[Event](eventPath, HasPrefix, logger)
	return v
}

// nextMtime returns a timestamp guaranteed to be >= every timestamp this
// VFS has previously handed out, satisfying the "mtime monotonically
// non-decreasing" invariant even under a coarse system clock.
func (v *VFS) nextMtime() time.Time {
	now := time.Now()
	if !now.After(v.lastMtime) {
		now = v.lastMtime.Add(time.Nanosecond)
	}
	v.lastMtime = now
	return now
}

// RegisterVirtualProvider mounts a read-only (or write-through) synthetic
// provider at mountPoint. Longest-prefix-match wins at routing
// time, so registration order does not matter.
func (v *VFS) RegisterVirtualProvider(mountPoint string, p vprovider.Provider) {
	v.mu.Lock()
	defer v.mu.Unlock()
	mountPoint = Normalize(mountPoint)
	v.virtual = append(v.virtual, virtualMount{prefix: mountPoint, provider: p})
}

// RegisterMountProvider mounts a read-write host-filesystem proxy at
// mountPoint. If p also implements mountprovider.HostWatcher, external
// edits to its backing storage are surfaced as VFS modify events under
// mountPoint, so a `Watch` registered against the mount sees changes
// made outside this process too.
func (v *VFS) RegisterMountProvider(mountPoint string, p mountprovider.MountProvider) {
	v.mu.Lock()
	mountPoint = Normalize(mountPoint)
	v.mounts = append(v.mounts, hostMount{prefix: mountPoint, provider: p})
	v.mu.Unlock()

	if hw, ok := p.(mountprovider.HostWatcher); ok {
		stop, err := hw.Watch(func(subpath string) {
			v.emit(Event{Type: EventModify, Path: Join(mountPoint, subpath), FileType: "file"})
		})
		if err != nil {
			v.logger.Warn("host mount watch failed", "mount", mountPoint, "error", err)
			return
		}
		v.mu.Lock()
		v.hostWatchStops = append(v.hostWatchStops, stop)
		v.mu.Unlock()
	}
}

// Close releases any resources RegisterMountProvider started on this
// VFS's behalf (fsnotify watchers on mounted host directories). Safe
// to call on a VFS with no such watchers.
func (v *VFS) Close() error {
	v.mu.Lock()
	stops := v.hostWatchStops
	v.hostWatchStops = nil
	v.mu.Unlock()

	var firstErr error
	for _, stop := range stops {
		if err := stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type routeKind int

const (
	routeMemory routeKind = iota
	routeVirtual
	routeMount
)

// route applies routing rules in order: longest-matching virtual
// prefix, then longest-matching mount prefix, then the in-memory tree.
func (v *VFS) route(path string) (kind routeKind, sub string, vp vprovider.Provider, mp mountprovider.MountProvider) {
	path = Normalize(path)

	if vm, ok := longestVirtual(v.virtual, path); ok {
		return routeVirtual, Rel(path, vm.prefix), vm.provider, nil
	}
	if hm, ok := longestMount(v.mounts, path); ok {
		return routeMount, Rel(path, hm.prefix), nil, hm.provider
	}
	return routeMemory, path, nil, nil
}

func longestVirtual(ms []virtualMount, path string) (virtualMount, bool) {
	best := -1
	var bestM virtualMount
	for _, m := range ms {
		if HasPrefix(path, m.prefix) && len(m.prefix) > best {
			best = len(m.prefix)
			bestM = m
		}
	}
	return bestM, best >= 0
}

func longestMount(ms []hostMount, path string) (hostMount, bool) {
	best := -1
	var bestM hostMount
	for _, m := range ms {
		if HasPrefix(path, m.prefix) && len(m.prefix) > best {
			best = len(m.prefix)
			bestM = m
		}
	}
	return bestM, best >= 0
}

// Watch registers a listener scoped to pathPrefix ("" means global) and
// returns a disposer that removes it.
func (v *VFS) Watch(pathPrefix string, listener func(Event)) watch.Disposer {
	if pathPrefix != "" {
		pathPrefix = Normalize(pathPrefix)
	}
	return v.watchers.Watch(pathPrefix, listener)
}

func (v *VFS) emit(ev Event) {
	v.watchers.Dispatch(ev)
}

// VirtualPrefixes is the exported form of virtualPrefixes, for the
// persistence package to exclude virtual/mount subtrees from snapshots
// and exports without reaching into VFS internals.
func (v *VFS) VirtualPrefixes() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.virtualPrefixes()
}

// virtualPrefixes returns the mount points that must be excluded from
// persisted snapshots and exports: proc, dev,
// and any host mount (mnt-style), i.e. every virtual and every mount
// registration.
func (v *VFS) virtualPrefixes() []string {
	out := make([]string, 0, len(v.virtual)+len(v.mounts))
	for _, m := range v.virtual {
		out = append(out, m.prefix)
	}
	for _, m := range v.mounts {
		out = append(out, m.prefix)
	}
	sort.Strings(out)
	return out
}
