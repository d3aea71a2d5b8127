package exec

import (
	"strings"

	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/lifo-sh/lifo/shell/expand"
)

// openStreams is the result of applying a simple command's
// redirections to its inherited stdin/stdout/stderr.
type openStreams struct {
	stdin   Reader
	stdout  Writer
	stderr  Writer
	closers []Closer
}

func (o *openStreams) closeAll() {
	for _, c := range o.closers {
		_ = c.Close()
	}
}

// resolvePath resolves a redirection target against cwd: absolute
// targets are used as-is, relative ones are joined to the shell's cwd
// as it was at command dispatch time.
func resolvePath(cwd, path string) string {
	if strings.HasPrefix(path, "/") {
		return vfs.Normalize(path)
	}
	return vfs.Join(cwd, path)
}

// redirectTarget expands a redirection's target word to the single
// path it names. Only the first resulting field is used; targets are
// plain words in practice, so a glob or split producing more is not a
// case worth a dedicated error.
func redirectTarget(ectx *expand.Context, w *ast.Word) (string, error) {
	fields, err := expand.Word(w, ectx)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

// applyRedirections opens every redirection on cmd in order, each one
// overriding whichever stream it targets (last redirection of a given
// stream wins, the conventional shell rule for `cmd > a > b`).
func applyRedirections(cmd *ast.SimpleCommand, ectx *expand.Context, stdin Reader, stdout, stderr Writer) (*openStreams, error) {
	os := &openStreams{stdin: stdin, stdout: stdout, stderr: stderr}
	for _, r := range cmd.Redirections {
		target, err := redirectTarget(ectx, r.Target)
		if err != nil {
			return nil, err
		}
		path := resolvePath(ectx.Cwd, target)

		switch r.Kind {
		case ast.RedirectOut:
			w := NewVFSWriter(ectx.VFS, path, false)
			os.stdout = w
			os.closers = append(os.closers, w.(Closer))
		case ast.RedirectAppend:
			w := NewVFSWriter(ectx.VFS, path, true)
			os.stdout = w
			os.closers = append(os.closers, w.(Closer))
		case ast.RedirectIn:
			rd, err := NewVFSReader(ectx.VFS, path)
			if err != nil {
				return nil, err
			}
			os.stdin = rd
		case ast.RedirectErr:
			w := NewVFSWriter(ectx.VFS, path, false)
			os.stderr = w
			os.closers = append(os.closers, w.(Closer))
		case ast.RedirectErrAppend:
			w := NewVFSWriter(ectx.VFS, path, true)
			os.stderr = w
			os.closers = append(os.closers, w.(Closer))
		case ast.RedirectAll:
			w := NewVFSWriter(ectx.VFS, path, false)
			os.stdout = w
			os.stderr = w
			os.closers = append(os.closers, w.(Closer))
		}
	}
	return os, nil
}
