package vfs

import (
	"time"

	"github.com/lifo-sh/lifo/internal/mountprovider"
	"github.com/lifo-sh/lifo/internal/vprovider"
)

// StatResult is the information returned about any path regardless of
// which routing target served it.
type StatResult struct {
	Path     string
	Name     string
	IsDir    bool
	Size     int64
	Mode     uint32
	Ctime    time.Time
	Mtime    time.Time
	Mime     string
	Category string
}

// Stat returns metadata for path. Size is always the logical size the
// last writer intended, independent of chunking.
func (v *VFS) Stat(path string) (StatResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.statLocked(path)
}

func (v *VFS) statLocked(path string) (StatResult, error) {
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		st, err := vp.Stat(sub)
		if err != nil {
			return StatResult{}, translateVirtualErr(err, path)
		}
		return StatResult{Path: path, Name: st.Name, IsDir: st.IsDir, Size: st.Size, Mode: st.Mode, Mtime: st.Mtime}, nil
	case routeMount:
		st, err := mp.Stat(sub)
		if err != nil {
			return StatResult{}, translateMountErr(err, path)
		}
		return StatResult{Path: path, Name: st.Name, IsDir: st.IsDir, Size: st.Size, Mode: st.Mode, Mtime: st.Mtime}, nil
	default:
		n, err := v.resolve(path)
		if err != nil {
			return StatResult{}, err
		}
		return inodeStat(path, n), nil
	}
}

func inodeStat(path string, n *Inode) StatResult {
	if n.IsDir() {
		return StatResult{Path: path, Name: n.Name, IsDir: true, Mode: n.Mode, Ctime: n.Ctime, Mtime: n.Mtime}
	}
	return StatResult{
		Path: path, Name: n.Name, IsDir: false, Size: n.Size, Mode: n.Mode,
		Ctime: n.Ctime, Mtime: n.Mtime, Mime: n.MimeType, Category: Category(n.MimeType),
	}
}

// Exists reports whether path resolves to anything.
func (v *VFS) Exists(path string) bool {
	_, err := v.Stat(path)
	return err == nil
}

// Readdir lists the names of a directory's children. Order is not part
// of the contract for the in-memory tree (callers sort explicitly);
// virtual/mount providers return whatever order they compute.
func (v *VFS) Readdir(path string) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		names, err := vp.Readdir(sub)
		if err != nil {
			return nil, translateVirtualErr(err, path)
		}
		return names, nil
	case routeMount:
		names, err := mp.Readdir(sub)
		if err != nil {
			return nil, translateMountErr(err, path)
		}
		return names, nil
	default:
		n, err := v.resolve(path)
		if err != nil {
			return nil, err
		}
		if !n.IsDir() {
			return nil, errNotDir(path)
		}
		return n.ChildNames(), nil
	}
}

// ReaddirStat lists children with their stat info in one call.
func (v *VFS) ReaddirStat(path string) ([]StatResult, error) {
	names, err := v.Readdir(path)
	if err != nil {
		return nil, err
	}
	out := make([]StatResult, 0, len(names))
	for _, name := range names {
		st, err := v.Stat(Join(path, name))
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func translateVirtualErr(err error, path string) error {
	switch err {
	case vprovider.ErrNotExist:
		return errNotExist(path)
	case vprovider.ErrNotDir:
		return errNotDir(path)
	case vprovider.ErrIsDir:
		return errIsDir(path)
	case vprovider.ErrInvalid:
		return errInvalid(path, "invalid operation")
	default:
		return errInvalid(path, err.Error())
	}
}

func translateMountErr(err error, path string) error {
	switch err {
	case mountprovider.ErrNotExist:
		return errNotExist(path)
	case mountprovider.ErrExist:
		return errExist(path)
	case mountprovider.ErrNotDir:
		return errNotDir(path)
	case mountprovider.ErrIsDir:
		return errIsDir(path)
	case mountprovider.ErrNotEmpty:
		return errNotEmpty(path)
	case mountprovider.ErrInvalid:
		return errInvalid(path, "invalid operation")
	default:
		// Mount provider errors collapse into the same code set as
		// in-memory errors rather than a distinct "mount" variant.
		return errInvalid(path, err.Error())
	}
}
