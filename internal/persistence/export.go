package persistence

import (
	"archive/tar"
	"io"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/lifo-sh/lifo/internal/vfs"
)

// Export writes a POSIX-ustar tar stream of the VFS's in-memory tree to
// w, optionally gzip-compressed, excluding virtual/mount prefixes.
// Directory entries are written before the file entries they contain,
// since importers must create parents before writing children.
func Export(v *vfs.VFS, w io.Writer, compress bool) error {
	var tw *tar.Writer
	if compress {
		gz := gzip.NewWriter(w)
		defer gz.Close()
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(w)
	}
	defer tw.Close()

	excluded := v.VirtualPrefixes()
	return exportDir(v, tw, "/", excluded)
}

func exportDir(v *vfs.VFS, tw *tar.Writer, path string, excluded []string) error {
	st, err := v.Stat(path)
	if err != nil {
		return err
	}
	if path != "/" {
		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeDir,
			Name:     tarName(path) + "/",
			Mode:     int64(st.Mode),
			ModTime:  st.Mtime,
		}); err != nil {
			return err
		}
	}

	names, err := v.Readdir(path)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		childPath := vfs.Join(path, name)
		if isExcluded(childPath, excluded) {
			continue
		}
		childSt, err := v.Stat(childPath)
		if err != nil {
			continue
		}
		if childSt.IsDir {
			if err := exportDir(v, tw, childPath, excluded); err != nil {
				return err
			}
			continue
		}
		if err := exportFile(v, tw, childPath, childSt); err != nil {
			return err
		}
	}
	return nil
}

func exportFile(v *vfs.VFS, tw *tar.Writer, path string, st vfs.StatResult) error {
	data, err := v.ReadFile(path)
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     tarName(path),
		Mode:     int64(st.Mode),
		Size:     int64(len(data)),
		ModTime:  st.Mtime,
	}); err != nil {
		return err
	}
	_, err = tw.Write(data)
	return err
}

func tarName(path string) string {
	if path == "/" {
		return "."
	}
	return path[1:]
}

// Import reads a tar stream (optionally gzip-compressed) written by
// Export and replays it into the VFS, creating parent directories
// before writing files (the tar's own ordering already guarantees
// this, but Import tolerates an out-of-order stream defensively).
func Import(v *vfs.VFS, r io.Reader, compressed bool) error {
	src := r
	if compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer gz.Close()
		src = gz
	}

	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		path := "/" + hdr.Name
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := v.Mkdir(path, vfs.MkdirOptions{Recursive: true}); err != nil {
				return err
			}
		case tar.TypeReg:
			if dir, _ := vfs.Split(path); dir != "/" {
				_ = v.Mkdir(dir, vfs.MkdirOptions{Recursive: true})
			}
			data, err := io.ReadAll(tr)
			if err != nil {
				return err
			}
			if err := v.WriteFile(path, data); err != nil {
				return err
			}
		}
	}
}
