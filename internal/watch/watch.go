// Package watch implements the path-scoped and global watcher
// infrastructure: listeners are dispatched
// synchronously, in registration order, within the mutating call that
// produced the event; listeners registered during dispatch are deferred
// to the next event instead of firing immediately.
//
// lifo's VFS mutates entirely in-memory and single-threaded, so this
// registry needs no OS file descriptor or background goroutine of its
// own: every mutation already happens on the caller's goroutine, so
// dispatch is a synchronous callback list rather than a channel. A
// mounted host directory is the one source of changes that does need
// a real background watcher; that lives in
// internal/mountprovider.NativeFsProvider.Watch, which feeds its
// events back into a Registry here the same as any in-process mutation.
package watch

import (
	"log/slog"
	"sync"
)

// Listener is called once per matching event.
type Listener[E any] func(E)

// Disposer removes a previously registered listener.
type Disposer func()

type entry[E any] struct {
	prefix   string // "" means global
	listener Listener[E]
	id       uint64
}

// Registry holds global and path-prefix-scoped watchers for one event
// type. PathOf must return the event's subject path so dispatch can test
// prefix matches.
type Registry[E any] struct {
	mu       sync.Mutex
	entries  []*entry[E]
	pending  []*entry[E] // registered during a Dispatch, merged in afterward
	inDisp   bool
	nextID   uint64
	logger   *slog.Logger
	pathOf   func(E) string
	prefixer func(path, prefix string) bool
}

// New constructs a Registry. pathOf extracts the event's path; hasPrefix
// decides whether an event's path falls under a watcher's prefix (pass a
// normalized-path-aware function; lifo uses internal/vfs.HasPrefix).
func New[E any](pathOf func(E) string, hasPrefix func(path, prefix string) bool, logger *slog.Logger) *Registry[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[E]{pathOf: pathOf, prefixer: hasPrefix, logger: logger}
}

// Watch registers a listener. An empty prefix means "global": it fires
// for every event regardless of path.
func (r *Registry[E]) Watch(prefix string, l Listener[E]) Disposer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	e := &entry[E]{prefix: prefix, listener: l, id: id}
	if r.inDisp {
		r.pending = append(r.pending, e)
	} else {
		r.entries = append(r.entries, e)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.entries = removeByID(r.entries, id)
		r.pending = removeByID(r.pending, id)
	}
}

func removeByID[E any](entries []*entry[E], id uint64) []*entry[E] {
	out := entries[:0:0]
	for _, e := range entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

// Dispatch fires every listener whose prefix matches the event's path,
// in registration order. Listener panics/errors are recovered and
// logged; they never interrupt the mutation that produced the event.
func (r *Registry[E]) Dispatch(ev E) {
	r.mu.Lock()
	r.inDisp = true
	snapshot := make([]*entry[E], len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	path := r.pathOf(ev)
	for _, e := range snapshot {
		if e.prefix != "" && !r.prefixer(path, e.prefix) {
			continue
		}
		r.fire(e, ev)
	}

	r.mu.Lock()
	r.inDisp = false
	if len(r.pending) > 0 {
		r.entries = append(r.entries, r.pending...)
		r.pending = nil
	}
	r.mu.Unlock()
}

func (r *Registry[E]) fire(e *entry[E], ev E) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("watch listener panicked", "recover", rec)
		}
	}()
	e.listener(ev)
}
