package vfs

import "time"

// ChunkRef is one entry of a chunk manifest: the content-store hash of a
// chunk and its byte length.
type ChunkRef struct {
	Hash string
	Size int64
}

// Kind distinguishes the two inode variants.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// Inode is a single node of the in-memory tree. A File carries exactly one
// content representation at a time: Data (inline, size < CHUNK_THRESHOLD)
// or Chunks (manifest, size >= CHUNK_THRESHOLD). A Directory carries an
// insertion-ordered map of children; iteration order is not contractual.
type Inode struct {
	Name  string
	Kind  Kind
	Ctime time.Time
	Mtime time.Time
	Mode  uint32

	// File fields.
	Data     []byte
	Chunks   []ChunkRef
	Size     int64 // logical size; authoritative even when chunked
	MimeType string
	BlobRef  string // cold-backend reference, optional

	// Directory fields.
	children map[string]*Inode
	order    []string // insertion order of children, for readdir stability of tests
}

// NewFile constructs an empty file inode.
func NewFile(name string, mode uint32, now time.Time) *Inode {
	return &Inode{Name: name, Kind: KindFile, Mode: mode, Ctime: now, Mtime: now}
}

// NewDir constructs an empty directory inode.
func NewDir(name string, mode uint32, now time.Time) *Inode {
	return &Inode{
		Name: name, Kind: KindDirectory, Mode: mode, Ctime: now, Mtime: now,
		children: make(map[string]*Inode),
	}
}

func (n *Inode) IsDir() bool  { return n.Kind == KindDirectory }
func (n *Inode) IsFile() bool { return n.Kind == KindFile }

func (n *Inode) child(name string) (*Inode, bool) {
	if n.children == nil {
		return nil, false
	}
	c, ok := n.children[name]
	return c, ok
}

func (n *Inode) setChild(name string, child *Inode) {
	if n.children == nil {
		n.children = make(map[string]*Inode)
	}
	if _, existed := n.children[name]; !existed {
		n.order = append(n.order, name)
	}
	n.children[name] = child
}

func (n *Inode) removeChild(name string) {
	if n.children == nil {
		return
	}
	delete(n.children, name)
	for i, nm := range n.order {
		if nm == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// ExportChild looks up a named child for callers outside this package
// that need read-only tree traversal (persistence snapshotting).
func (n *Inode) ExportChild(name string) (*Inode, bool) {
	return n.child(name)
}

// ImportChild attaches a fully-built child inode, for callers outside
// this package reconstructing a tree from a serialized snapshot
// (persistence loading). It preserves insertion order like setChild.
func (n *Inode) ImportChild(child *Inode) {
	n.setChild(child.Name, child)
}

// NewDirFromSnapshot reconstructs a directory inode with explicit
// timestamps, for persistence loading where ctime/mtime come from the
// serialized snapshot rather than "now".
func NewDirFromSnapshot(name string, mode uint32, ctime, mtime time.Time) *Inode {
	n := NewDir(name, mode, ctime)
	n.Mtime = mtime
	return n
}

// NewFileFromSnapshot reconstructs a file inode with explicit
// timestamps; callers fill in Data/Chunks/Size/MimeType/BlobRef after.
func NewFileFromSnapshot(name string, mode uint32, ctime, mtime time.Time) *Inode {
	n := NewFile(name, mode, ctime)
	n.Mtime = mtime
	return n
}

// ChildNames returns child names in insertion order.
func (n *Inode) ChildNames() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

func (n *Inode) childCount() int {
	return len(n.order)
}

// clone makes a deep copy of an inode, recursing into a directory's
// children (used by rename/copy);
// file byte slices are copied defensively, chunk manifests are copied by
// value since ChunkRef is a value type.
func (n *Inode) clone(newName string) *Inode {
	cp := *n
	cp.Name = newName
	if n.Data != nil {
		cp.Data = append([]byte(nil), n.Data...)
	}
	if n.Chunks != nil {
		cp.Chunks = append([]ChunkRef(nil), n.Chunks...)
	}
	if n.IsDir() {
		cp.children = make(map[string]*Inode, len(n.children))
		cp.order = append([]string(nil), n.order...)
		for name, child := range n.children {
			cp.children[name] = child.clone(child.Name)
		}
	}
	return &cp
}

// FileType mirrors the event/stat fileType field: "file" or "directory".
func (n *Inode) FileType() string {
	if n.IsDir() {
		return "directory"
	}
	return "file"
}
