package vfs

import (
	"github.com/lifo-sh/lifo/internal/contentstore"
	"github.com/lifo-sh/lifo/internal/vprovider"
)

// WriteFile replaces (or creates) the file at path with data, routing
// through virtual/mount providers when applicable, auto-chunking
// through the content store once data crosses CHUNKThreshold, and
// detecting MIME type from the file's extension. Exactly one event
// fires: create if the file did not previously exist, modify
// otherwise.
func (v *VFS) WriteFile(path string, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		w, ok := vp.(vprovider.Writer)
		if !ok {
			return errInvalid(path, "virtual provider is read-only")
		}
		existed := vp.Exists(sub)
		if err := w.WriteFile(sub, data); err != nil {
			return translateVirtualErr(err, path)
		}
		v.emitWrite(path, existed)
		return nil
	case routeMount:
		existed := mp.Exists(sub)
		if err := mp.WriteFile(sub, data); err != nil {
			return translateMountErr(err, path)
		}
		v.emitWrite(path, existed)
		return nil
	default:
		return v.writeMemory(path, data)
	}
}

func (v *VFS) emitWrite(path string, existed bool) {
	t := EventModify
	if !existed {
		t = EventCreate
	}
	v.emit(Event{Type: t, Path: path, FileType: "file"})
}

func (v *VFS) writeMemory(path string, data []byte) error {
	parent, name, err := v.resolveParent(path)
	if err != nil {
		return err
	}
	now := v.nextMtime()
	existing, existed := parent.child(name)
	if existed && existing.IsDir() {
		return errIsDir(path)
	}

	n := NewFile(name, 0o644, now)
	if existed {
		n.Ctime = existing.Ctime
		n.Mode = existing.Mode
	}
	n.MimeType = DetectMime(name)
	v.populateContent(n, data)

	parent.setChild(name, n)
	parent.Mtime = now

	t := EventModify
	if !existed {
		t = EventCreate
	}
	v.emit(Event{Type: t, Path: path, FileType: "file"})
	return nil
}

// populateContent stores data inline or chunked depending on size,
// updating the inode's Size/Data/Chunks fields: size >= CHUNKThreshold
// stores as a chunk manifest, anything smaller stays inline.
func (v *VFS) populateContent(n *Inode, data []byte) {
	n.Size = int64(len(data))
	if int64(len(data)) >= contentstore.CHUNKThreshold && v.store != nil {
		refs := v.store.StoreChunked(data)
		n.Chunks = fromStoreRefs(refs)
		n.Data = nil
		return
	}
	n.Data = append([]byte(nil), data...)
	n.Chunks = nil
}

func fromStoreRefs(refs []contentstore.ChunkRef) []ChunkRef {
	out := make([]ChunkRef, len(refs))
	for i, r := range refs {
		out[i] = ChunkRef{Hash: r.Hash, Size: r.Size}
	}
	return out
}

// AppendFile appends data to the file at path, creating it if it does
// not exist. It always fires a single "modify" event (or "create" if
// the file was created by this call).
func (v *VFS) AppendFile(path string, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		existing, _ := vp.ReadFile(sub)
		w, ok := vp.(vprovider.Writer)
		if !ok {
			return errInvalid(path, "virtual provider is read-only")
		}
		existed := vp.Exists(sub)
		if err := w.WriteFile(sub, append(existing, data...)); err != nil {
			return translateVirtualErr(err, path)
		}
		v.emitWrite(path, existed)
		return nil
	case routeMount:
		existing, _ := mp.ReadFile(sub)
		existed := mp.Exists(sub)
		if err := mp.WriteFile(sub, append(existing, data...)); err != nil {
			return translateMountErr(err, path)
		}
		v.emitWrite(path, existed)
		return nil
	default:
		parent, name, err := v.resolveParent(path)
		if err != nil {
			return err
		}
		now := v.nextMtime()
		existing, existed := parent.child(name)
		var prior []byte
		if existed {
			if existing.IsDir() {
				return errIsDir(path)
			}
			prior, err = v.readInodeBytes(path, existing)
			if err != nil {
				return err
			}
		}
		n := NewFile(name, 0o644, now)
		if existed {
			n.Ctime = existing.Ctime
			n.Mode = existing.Mode
		}
		n.MimeType = DetectMime(name)
		v.populateContent(n, append(prior, data...))
		parent.setChild(name, n)
		parent.Mtime = now

		t := EventModify
		if !existed {
			t = EventCreate
		}
		v.emit(Event{Type: t, Path: path, FileType: "file"})
		return nil
	}
}

// MkdirOptions controls Mkdir behavior.
type MkdirOptions struct {
	Recursive bool
}

// Mkdir creates a directory at path. Without Recursive, the parent
// must already exist and path must not. With Recursive, missing parent
// components are created silently and an already-existing directory at
// path is not an error (matching mkdir -p).
func (v *VFS) Mkdir(path string, opts MkdirOptions) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		_ = vp
		return errInvalid(path, "virtual provider is read-only")
	case routeMount:
		existed := mp.Exists(sub)
		if err := mp.Mkdir(sub, opts.Recursive); err != nil {
			return translateMountErr(err, path)
		}
		if !existed {
			v.emit(Event{Type: EventCreate, Path: path, FileType: "directory"})
		}
		return nil
	default:
		now := v.nextMtime()
		if opts.Recursive {
			if _, err := v.resolve(path); err == nil {
				return nil
			}
			if _, err := v.mkdirAll(path, 0o755, now); err != nil {
				return err
			}
			v.emit(Event{Type: EventCreate, Path: path, FileType: "directory"})
			return nil
		}
		parent, name, err := v.resolveParent(path)
		if err != nil {
			return err
		}
		if _, exists := parent.child(name); exists {
			return errExist(path)
		}
		parent.setChild(name, NewDir(name, 0o755, now))
		parent.Mtime = now
		v.emit(Event{Type: EventCreate, Path: path, FileType: "directory"})
		return nil
	}
}

// Unlink removes a single file. It is an error to unlink a directory.
func (v *VFS) Unlink(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		_ = vp
		return errInvalid(path, "virtual provider is read-only")
	case routeMount:
		if err := mp.Unlink(sub); err != nil {
			return translateMountErr(err, path)
		}
		v.emit(Event{Type: EventDelete, Path: path, FileType: "file"})
		return nil
	default:
		parent, name, err := v.resolveParent(path)
		if err != nil {
			return err
		}
		n, ok := parent.child(name)
		if !ok {
			return errNotExist(path)
		}
		if n.IsDir() {
			return errIsDir(path)
		}
		parent.removeChild(name)
		parent.Mtime = v.nextMtime()
		v.emit(Event{Type: EventDelete, Path: path, FileType: "file"})
		return nil
	}
}

// Rmdir removes a directory. Without recursive, a non-empty directory
// fails with ENOTEMPTY; with recursive, the whole subtree is removed as
// a single mutation: exactly one event fires for the operation.
func (v *VFS) Rmdir(path string, recursive bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	path = Normalize(path)
	kind, sub, vp, mp := v.route(path)
	switch kind {
	case routeVirtual:
		_ = vp
		return errInvalid(path, "virtual provider is read-only")
	case routeMount:
		if err := mp.Rmdir(sub, recursive); err != nil {
			return translateMountErr(err, path)
		}
		v.emit(Event{Type: EventDelete, Path: path, FileType: "directory"})
		return nil
	default:
		parent, name, err := v.resolveParent(path)
		if err != nil {
			return err
		}
		n, ok := parent.child(name)
		if !ok {
			return errNotExist(path)
		}
		if !n.IsDir() {
			return errNotDir(path)
		}
		if !recursive && n.childCount() > 0 {
			return errNotEmpty(path)
		}
		parent.removeChild(name)
		parent.Mtime = v.nextMtime()
		v.emit(Event{Type: EventDelete, Path: path, FileType: "directory"})
		return nil
	}
}

// Rename moves a file or directory from oldPath to newPath, emitting a
// single "rename" event rather than a delete/create pair. Both paths
// must resolve within the same routing target; cross-target moves are
// rejected with EINVAL: rename does not copy across providers.
func (v *VFS) Rename(oldPath, newPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	oldPath = Normalize(oldPath)
	newPath = Normalize(newPath)

	oldKind, oldSub, _, oldMp := v.route(oldPath)
	newKind, newSub, _, newMp := v.route(newPath)
	if oldKind != newKind || (oldKind == routeMount && oldMp != newMp) {
		return errInvalid(oldPath, "rename cannot cross routing boundaries")
	}

	switch oldKind {
	case routeVirtual:
		return errInvalid(oldPath, "virtual provider is read-only")
	case routeMount:
		ft := fileTypeOf(v, oldPath)
		if err := oldMp.Rename(oldSub, newSub); err != nil {
			return translateMountErr(err, oldPath)
		}
		v.emit(Event{Type: EventRename, Path: newPath, OldPath: oldPath, FileType: ft})
		return nil
	default:
		oldParent, oldName, err := v.resolveParent(oldPath)
		if err != nil {
			return err
		}
		n, ok := oldParent.child(oldName)
		if !ok {
			return errNotExist(oldPath)
		}
		newParent, newName, err := v.resolveParent(newPath)
		if err != nil {
			return err
		}
		if existing, exists := newParent.child(newName); exists {
			if existing.IsDir() != n.IsDir() {
				if existing.IsDir() {
					return errIsDir(newPath)
				}
				return errNotDir(newPath)
			}
			if existing.IsDir() && existing.childCount() > 0 {
				return errNotEmpty(newPath)
			}
		}
		now := v.nextMtime()
		oldParent.removeChild(oldName)
		oldParent.Mtime = now
		moved := n.clone(newName)
		moved.Mtime = now
		newParent.setChild(newName, moved)
		newParent.Mtime = now
		v.emit(Event{Type: EventRename, Path: newPath, OldPath: oldPath, FileType: moved.FileType()})
		return nil
	}
}

func fileTypeOf(v *VFS, path string) string {
	st, err := v.statLocked(path)
	if err != nil {
		return "file"
	}
	if st.IsDir {
		return "directory"
	}
	return "file"
}

// CopyFile copies a single file's content to a new path, leaving the
// source intact. It is an error to copy a directory this way.
func (v *VFS) CopyFile(oldPath, newPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	oldPath = Normalize(oldPath)
	newPath = Normalize(newPath)

	oldKind, oldSub, _, oldMp := v.route(oldPath)
	newKind, newSub, _, newMp := v.route(newPath)
	if oldKind != newKind || (oldKind == routeMount && oldMp != newMp) {
		return errInvalid(oldPath, "copy cannot cross routing boundaries")
	}

	switch oldKind {
	case routeVirtual:
		return errInvalid(oldPath, "virtual provider is read-only")
	case routeMount:
		existed := oldMp.Exists(newSub)
		if err := oldMp.CopyFile(oldSub, newSub); err != nil {
			return translateMountErr(err, oldPath)
		}
		v.emit(Event{Type: eventKindFor(existed), Path: newPath, FileType: "file"})
		return nil
	default:
		n, err := v.resolve(oldPath)
		if err != nil {
			return err
		}
		if n.IsDir() {
			return errIsDir(oldPath)
		}
		newParent, newName, err := v.resolveParent(newPath)
		if err != nil {
			return err
		}
		_, existed := newParent.child(newName)
		now := v.nextMtime()
		cp := n.clone(newName)
		cp.Ctime = now
		cp.Mtime = now
		newParent.setChild(newName, cp)
		newParent.Mtime = now
		v.emit(Event{Type: eventKindFor(existed), Path: newPath, FileType: "file"})
		return nil
	}
}

func eventKindFor(existed bool) EventType {
	if existed {
		return EventModify
	}
	return EventCreate
}

// RmdirRecursive is an explicit alias for Rmdir(path, true), matching
// the distinct names Rmdir's two removal modes are given elsewhere.
func (v *VFS) RmdirRecursive(path string) error {
	return v.Rmdir(path, true)
}

// GetRoot returns the root inode, primarily for persistence snapshot
// serialization.
func (v *VFS) GetRoot() *Inode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// LoadRoot replaces the entire in-memory tree with root, reconstructed
// by the persistence package from a serialized snapshot. Virtual
// and mount registrations are untouched; loading never contacts the
// content store, so a chunked file's bytes are assembled lazily on its
// first read.
func (v *VFS) LoadRoot(root *Inode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = root
}
