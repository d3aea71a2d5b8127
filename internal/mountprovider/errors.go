package mountprovider

import "errors"

// Sentinels translated by internal/vfs at the routing boundary into its
// own closed Error type, mirroring vprovider's approach.
var (
	ErrNotExist = errors.New("no such file or directory")
	ErrExist    = errors.New("file exists")
	ErrNotDir   = errors.New("not a directory")
	ErrIsDir    = errors.New("is a directory")
	ErrNotEmpty = errors.New("directory not empty")
	ErrInvalid  = errors.New("invalid operation")
)
