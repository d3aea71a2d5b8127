// Package persistence implements debounced snapshot saving, the JSON
// tree serialization format, and the tar+gzip export/import path.
package persistence

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"time"

	"github.com/lifo-sh/lifo/internal/vfs"
)

func unixNano(n int64) time.Time {
	return time.Unix(0, n)
}

// node is the wire shape of one serialized inode: "f" for file, "d" for
// directory. Fields are tagged short to keep snapshots compact.
type node struct {
	Type     string     `json:"t"`
	Name     string     `json:"n"`
	Ctime    int64      `json:"ct"`
	Mtime    int64      `json:"mt"`
	Mode     uint32     `json:"m"`
	Data     string     `json:"d,omitempty"`
	Chunks   []chunkRef `json:"ch,omitempty"`
	Size     int64      `json:"sz,omitempty"`
	Mime     string     `json:"mi,omitempty"`
	Blob     string     `json:"br,omitempty"`
	Children []node     `json:"c,omitempty"`
}

type chunkRef struct {
	Hash string `json:"h"`
	Size int64  `json:"s"`
}

// Snapshot walks the in-memory tree rooted at root and produces its
// serialized form, excluding any subtree whose path matches one of
// excludePrefixes (the virtual/mount mount points).
func Snapshot(root *vfs.Inode, excludePrefixes []string) []byte {
	n := snapshotNode(root, "/", excludePrefixes)
	b, err := json.Marshal(n)
	if err != nil {
		// Inode trees built only from this package's own types never fail
		// to marshal; a failure here would be a programming error.
		panic("persistence: snapshot marshal: " + err.Error())
	}
	return b
}

func snapshotNode(n *vfs.Inode, path string, excludePrefixes []string) node {
	if n.IsDir() {
		out := node{Type: "d", Name: n.Name, Ctime: n.Ctime.UnixNano(), Mtime: n.Mtime.UnixNano(), Mode: n.Mode}
		names := n.ChildNames()
		sort.Strings(names)
		for _, name := range names {
			childPath := joinPath(path, name)
			if isExcluded(childPath, excludePrefixes) {
				continue
			}
			child, ok := childByName(n, name)
			if !ok {
				continue
			}
			out.Children = append(out.Children, snapshotNode(child, childPath, excludePrefixes))
		}
		return out
	}
	return fileNode(n)
}

func fileNode(n *vfs.Inode) node {
	out := node{
		Type: "f", Name: n.Name, Ctime: n.Ctime.UnixNano(), Mtime: n.Mtime.UnixNano(),
		Mode: n.Mode, Size: n.Size, Mime: n.MimeType, Blob: n.BlobRef,
	}
	if n.Chunks != nil {
		for _, c := range n.Chunks {
			out.Chunks = append(out.Chunks, chunkRef{Hash: c.Hash, Size: c.Size})
		}
		return out
	}
	out.Data = base64.StdEncoding.EncodeToString(n.Data)
	return out
}

// childByName exposes vfs.Inode.ChildNames()'s companions through the
// exported Child helper vfs provides for persistence/export use.
func childByName(n *vfs.Inode, name string) (*vfs.Inode, bool) {
	return n.ExportChild(name)
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

func isExcluded(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if vfs.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Load parses a serialized snapshot back into an inode tree. It never
// contacts the content store: chunked files keep their manifest and are
// assembled lazily on first read.
func Load(data []byte) (*vfs.Inode, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return buildInode(n), nil
}

func buildInode(n node) *vfs.Inode {
	if n.Type == "d" {
		dir := vfs.NewDirFromSnapshot(n.Name, n.Mode, unixNano(n.Ctime), unixNano(n.Mtime))
		for _, c := range n.Children {
			dir.ImportChild(buildInode(c))
		}
		return dir
	}
	file := vfs.NewFileFromSnapshot(n.Name, n.Mode, unixNano(n.Ctime), unixNano(n.Mtime))
	file.Size = n.Size
	file.MimeType = n.Mime
	file.BlobRef = n.Blob
	if n.Chunks != nil {
		for _, c := range n.Chunks {
			file.Chunks = append(file.Chunks, vfs.ChunkRef{Hash: c.Hash, Size: c.Size})
		}
		return file
	}
	b, err := base64.StdEncoding.DecodeString(n.Data)
	if err == nil {
		file.Data = b
	}
	return file
}
