package mountprovider

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NativeFsProvider proxies VFS operations onto a real host directory,
// sandboxed so that no resolved path can ever leave that directory.
type NativeFsProvider struct {
	root     string
	readOnly bool
}

// NewNativeFsProvider mounts hostRoot (which must already exist).
// readOnly providers fail every write with ErrInvalid.
func NewNativeFsProvider(hostRoot string, readOnly bool) *NativeFsProvider {
	return &NativeFsProvider{root: hostRoot, readOnly: readOnly}
}

// resolve sandboxes subpath to the mount root: net ".." components may
// never exceed net traversed components. It returns the absolute host
// path.
func (n *NativeFsProvider) resolve(subpath string) (string, error) {
	parts := strings.Split(strings.Trim(subpath, "/"), "/")
	var stack []string
	for _, p := range parts {
		switch p {
		case "", ".":
			// skip
		case "..":
			if len(stack) == 0 {
				return "", ErrInvalid
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, p)
		}
	}
	return filepath.Join(n.root, filepath.Join(stack...)), nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return ErrNotExist
	case errors.Is(err, os.ErrExist):
		return ErrExist
	default:
		var pe *fs.PathError
		if errors.As(err, &pe) {
			if strings.Contains(pe.Err.Error(), "is a directory") {
				return ErrIsDir
			}
			if strings.Contains(pe.Err.Error(), "not a directory") {
				return ErrNotDir
			}
			if strings.Contains(pe.Err.Error(), "directory not empty") {
				return ErrNotEmpty
			}
		}
		return err
	}
}

func (n *NativeFsProvider) ReadFile(subpath string) ([]byte, error) {
	p, err := n.resolve(subpath)
	if err != nil {
		return nil, err
	}
	info, statErr := os.Stat(p)
	if statErr == nil && info.IsDir() {
		return nil, ErrIsDir
	}
	b, err := os.ReadFile(p)
	return b, mapErr(err)
}

func (n *NativeFsProvider) ReadFileString(subpath string) (string, error) {
	b, err := n.ReadFile(subpath)
	return string(b), err
}

func (n *NativeFsProvider) WriteFile(subpath string, data []byte) error {
	if n.readOnly {
		return ErrInvalid
	}
	p, err := n.resolve(subpath)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
		return ErrIsDir
	}
	return mapErr(os.WriteFile(p, data, 0o644))
}

func (n *NativeFsProvider) Exists(subpath string) bool {
	p, err := n.resolve(subpath)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (n *NativeFsProvider) Stat(subpath string) (Stat, error) {
	p, err := n.resolve(subpath)
	if err != nil {
		return Stat{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return Stat{}, mapErr(err)
	}
	return Stat{
		Name:  info.Name(),
		IsDir: info.IsDir(),
		Mode:  uint32(info.Mode().Perm()),
		Size:  info.Size(),
		Mtime: info.ModTime(),
	}, nil
}

func (n *NativeFsProvider) Readdir(subpath string) ([]string, error) {
	p, err := n.resolve(subpath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		if info, statErr := os.Stat(p); statErr == nil && !info.IsDir() {
			return nil, ErrNotDir
		}
		return nil, mapErr(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (n *NativeFsProvider) Unlink(subpath string) error {
	if n.readOnly {
		return ErrInvalid
	}
	p, err := n.resolve(subpath)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
		return ErrIsDir
	}
	return mapErr(os.Remove(p))
}

func (n *NativeFsProvider) Mkdir(subpath string, recursive bool) error {
	if n.readOnly {
		return ErrInvalid
	}
	p, err := n.resolve(subpath)
	if err != nil {
		return err
	}
	if recursive {
		return mapErr(os.MkdirAll(p, 0o755))
	}
	if _, statErr := os.Stat(p); statErr == nil {
		return ErrExist
	}
	return mapErr(os.Mkdir(p, 0o755))
}

func (n *NativeFsProvider) Rmdir(subpath string, recursive bool) error {
	if n.readOnly {
		return ErrInvalid
	}
	p, err := n.resolve(subpath)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(p)
	if statErr != nil {
		return mapErr(statErr)
	}
	if !info.IsDir() {
		return ErrNotDir
	}
	if recursive {
		return mapErr(os.RemoveAll(p))
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return mapErr(err)
	}
	if len(entries) > 0 {
		return ErrNotEmpty
	}
	return mapErr(os.Remove(p))
}

func (n *NativeFsProvider) Rename(oldSubpath, newSubpath string) error {
	if n.readOnly {
		return ErrInvalid
	}
	oldP, err := n.resolve(oldSubpath)
	if err != nil {
		return err
	}
	newP, err := n.resolve(newSubpath)
	if err != nil {
		return err
	}
	return mapErr(os.Rename(oldP, newP))
}

func (n *NativeFsProvider) CopyFile(oldSubpath, newSubpath string) error {
	if n.readOnly {
		return ErrInvalid
	}
	oldP, err := n.resolve(oldSubpath)
	if err != nil {
		return err
	}
	newP, err := n.resolve(newSubpath)
	if err != nil {
		return err
	}
	src, err := os.Open(oldP)
	if err != nil {
		return mapErr(err)
	}
	defer src.Close()
	dst, err := os.Create(newP)
	if err != nil {
		return mapErr(err)
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
