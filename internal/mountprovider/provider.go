// Package mountprovider implements the read-write host-filesystem proxy
// with the same read contract as a virtual provider, plus
// mutation operations, with every sub-path sandboxed to the mount root.
package mountprovider

import "time"

// Stat mirrors vprovider.Stat; duplicated locally so this package has no
// dependency on vprovider (the two providers are siblings under VFS).
type Stat struct {
	Name  string
	IsDir bool
	Mode  uint32
	Size  int64
	Mtime time.Time
}

// MountProvider is a read-write provider proxying to a host filesystem.
// All sub-paths are relative to the mount root and are sandboxed: any
// resolution that would escape the root fails with ErrInvalid.
type MountProvider interface {
	ReadFile(subpath string) ([]byte, error)
	ReadFileString(subpath string) (string, error)
	WriteFile(subpath string, data []byte) error
	Exists(subpath string) bool
	Stat(subpath string) (Stat, error)
	Readdir(subpath string) ([]string, error)

	Unlink(subpath string) error
	Mkdir(subpath string, recursive bool) error
	Rmdir(subpath string, recursive bool) error
	Rename(oldSubpath, newSubpath string) error
	CopyFile(oldSubpath, newSubpath string) error
}
