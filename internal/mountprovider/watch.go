package mountprovider

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// HostWatcher is implemented by mount providers that can observe
// external changes to their backing storage (edits made to the host
// directory by something other than this process) and report them by
// subpath. VFS checks for this interface when a provider is
// registered and, if present, translates its notifications into VFS
// events so watchers of a mount point see external edits too.
type HostWatcher interface {
	// Watch starts observing the provider's storage and calls
	// onChange with the affected subpath for every create/write/
	// remove/rename it sees. stop ends the watch.
	Watch(onChange func(subpath string)) (stop func() error, err error)
}

// Watch installs an fsnotify watch on every directory under the mount
// root (fsnotify itself only watches a single directory, not a
// subtree) and reports changes translated back to VFS subpaths.
func (n *NativeFsProvider) Watch(onChange func(subpath string)) (func() error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(n.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
						_ = w.Add(ev.Name)
					}
				}
				onChange(n.toSubpath(ev.Name))
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w.Close, nil
}

// toSubpath converts an absolute host path fsnotify reports back into
// a VFS-style subpath relative to the mount root.
func (n *NativeFsProvider) toSubpath(hostPath string) string {
	rel, err := filepath.Rel(n.root, hostPath)
	if err != nil {
		return "/"
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "/"
	}
	return "/" + strings.TrimPrefix(rel, "/")
}
