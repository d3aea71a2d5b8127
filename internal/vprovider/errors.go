package vprovider

import "errors"

// Providers return these sentinels; internal/vfs translates them into its
// own closed Error type at the routing boundary (vprovider must not
// import vfs, since vfs routes into vprovider).
var (
	ErrNotExist = errors.New("no such file or directory")
	ErrNotDir   = errors.New("not a directory")
	ErrIsDir    = errors.New("is a directory")
	ErrInvalid  = errors.New("invalid operation")
)
