package vfs

import "time"

// resolve walks the in-memory tree to the inode at path (already
// normalized, already confirmed to be in-memory territory by routing).
func (v *VFS) resolve(path string) (*Inode, error) {
	segs := Segments(path)
	cur := v.root
	for i, seg := range segs {
		if !cur.IsDir() {
			return nil, errNotDir(path)
		}
		child, ok := cur.child(seg)
		if !ok {
			return nil, errNotExist(path)
		}
		cur = child
		_ = i
	}
	return cur, nil
}

// resolveParent walks to the parent directory of path and returns it
// along with the final path segment (the child's name, which need not
// exist yet). The parent must exist and be a directory.
func (v *VFS) resolveParent(path string) (*Inode, string, error) {
	dir, name := Split(path)
	if name == "" {
		return nil, "", errInvalid(path, "path has no parent")
	}
	parent, err := v.resolve(dir)
	if err != nil {
		return nil, "", err
	}
	if !parent.IsDir() {
		return nil, "", errNotDir(dir)
	}
	return parent, name, nil
}

// mkdirAll ensures every directory component of path exists, creating
// missing ones. It does not create the final component if it is meant
// to be a file; callers of mkdir(recursive) pass the full directory
// path itself.
func (v *VFS) mkdirAll(path string, mode uint32, now time.Time) (*Inode, error) {
	segs := Segments(path)
	cur := v.root
	built := "/"
	for _, seg := range segs {
		if !cur.IsDir() {
			return nil, errNotDir(built)
		}
		child, ok := cur.child(seg)
		if !ok {
			child = NewDir(seg, mode, now)
			cur.setChild(seg, child)
		} else if !child.IsDir() {
			return nil, errNotDir(Join(built, seg))
		}
		cur = child
		built = Join(built, seg)
	}
	return cur, nil
}
