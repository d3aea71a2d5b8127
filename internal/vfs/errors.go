package vfs

import "fmt"

// Code is a symbolic error code from the closed VFS/mount error set.
type Code string

const (
	ENOENT    Code = "ENOENT"
	EEXIST    Code = "EEXIST"
	ENOTDIR   Code = "ENOTDIR"
	EISDIR    Code = "EISDIR"
	ENOTEMPTY Code = "ENOTEMPTY"
	EINVAL    Code = "EINVAL"
)

// Error is the error type every VFS, virtual-provider, and mount-provider
// call returns. Its message shape is fixed: "<code>: <detail>".
type Error struct {
	Code   Code
	Path   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is makes errors.Is match any *Error target with the same Code, such
// as the ErrNotExist-style sentinels; a bare Code is not a valid target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(code Code, path, detail string) *Error {
	return &Error{Code: code, Path: path, Detail: detail}
}

func errNotExist(path string) *Error {
	return newErr(ENOENT, path, fmt.Sprintf("no such file or directory: %s", path))
}

func errExist(path string) *Error {
	return newErr(EEXIST, path, fmt.Sprintf("file exists: %s", path))
}

func errNotDir(path string) *Error {
	return newErr(ENOTDIR, path, fmt.Sprintf("not a directory: %s", path))
}

func errIsDir(path string) *Error {
	return newErr(EISDIR, path, fmt.Sprintf("is a directory: %s", path))
}

func errNotEmpty(path string) *Error {
	return newErr(ENOTEMPTY, path, fmt.Sprintf("directory not empty: %s", path))
}

func errInvalid(path, detail string) *Error {
	return newErr(EINVAL, path, detail)
}

// Sentinels so callers can do errors.Is(err, vfs.ErrNotExist) etc. against
// a stable value, matching the closed-set codes above.
var (
	ErrNotExist = &Error{Code: ENOENT}
	ErrExist    = &Error{Code: EEXIST}
	ErrNotDir   = &Error{Code: ENOTDIR}
	ErrIsDir    = &Error{Code: EISDIR}
	ErrNotEmpty = &Error{Code: ENOTEMPTY}
	ErrInvalid  = &Error{Code: EINVAL}
)
