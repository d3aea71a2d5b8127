package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lifo-sh/lifo/internal/blobstore"
	"github.com/lifo-sh/lifo/internal/vfs"
)

// SaveDebounce is the fixed debounce window: every call to ScheduleSave
// within this window of the previous one cancels the pending save and
// reschedules it.
const SaveDebounce = 1000 * time.Millisecond

// Manager debounces saves of a VFS's tree into a TreeStore backend.
// Modeled on a batch processor's single pending flush timer: each
// mutation resets the timer rather than queuing a new one, so a burst
// of writes produces exactly one save once things go quiet.
type Manager struct {
	store  blobstore.TreeStore
	vfs    *vfs.VFS
	logger *slog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	debounce  time.Duration
	saving    bool
	saveAgain bool
}

// NewManager constructs a Manager. store must already be (or be about
// to be) Open'd by the caller; Manager never calls Open or Close
// itself.
func NewManager(v *vfs.VFS, store blobstore.TreeStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{vfs: v, store: store, logger: logger, debounce: SaveDebounce}
}

// ScheduleSave debounces a save by SaveDebounce: each call cancels any
// pending timer and starts a fresh one. Save errors are swallowed —
// persistence is best-effort and never surfaces to the caller that
// triggered the mutation.
func (m *Manager) ScheduleSave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, m.flush)
}

// flush performs one save. If a save is already in flight when another
// is requested, the second is recorded and re-run after the first
// completes rather than running concurrently.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.saving {
		m.saveAgain = true
		m.mu.Unlock()
		return
	}
	m.saving = true
	m.mu.Unlock()

	m.saveOnce()

	m.mu.Lock()
	again := m.saveAgain
	m.saveAgain = false
	m.saving = false
	m.mu.Unlock()

	if again {
		m.saveOnce()
	}
}

func (m *Manager) saveOnce() {
	root := m.vfs.GetRoot()
	prefixes := m.vfs.VirtualPrefixes()
	serialized := Snapshot(root, prefixes)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.SaveTree(ctx, serialized); err != nil {
		m.logger.Warn("persistence save failed", "error", err)
	}
}

// Load reads the last saved snapshot and installs it as the VFS's tree.
// A missing snapshot (first run) is not an error: the VFS keeps its
// fresh empty root.
func (m *Manager) Load(ctx context.Context) error {
	b, err := m.store.LoadTree(ctx)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	root, err := Load(b)
	if err != nil {
		return err
	}
	m.vfs.LoadRoot(root)
	return nil
}

// Flush forces an immediate save, bypassing the debounce window. Used
// by callers that need a synchronous guarantee (e.g. before shutdown).
func (m *Manager) Flush() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
	m.flush()
}
