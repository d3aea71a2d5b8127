package exec

import (
	"context"

	"github.com/lifo-sh/lifo/internal/vfs"
)

// CancelToken is the cooperative cancellation signal passed in every
// Context: a command is obligated to check it at I/O boundaries and
// loop points, there is no preemption. A thin wrapper over
// context.Context narrowed to the single capability a built-in
// actually needs.
type CancelToken struct {
	ctx context.Context
}

// Done returns a channel that closes when the token is fired.
func (t CancelToken) Done() <-chan struct{} {
	if t.ctx == nil {
		return nil
	}
	return t.ctx.Done()
}

// Cancelled reports whether the token has already fired.
func (t CancelToken) Cancelled() bool {
	if t.ctx == nil {
		return false
	}
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

// Context is the command contract: every command is a function from
// *Context to an exit status (0-255).
type Context struct {
	Args   []string
	Env    map[string]string
	Cwd    string
	VFS    *vfs.VFS
	Stdout Writer
	Stderr Writer
	Stdin  Reader
	Signal CancelToken

	// SetRawMode is an optional hook into the embedder's terminal
	// layer; core commands never call it, but interactive commands
	// like a pager need it.
	SetRawMode func(bool)
}

// Command is a single dispatchable unit: a built-in or a registered
// command. It returns the process exit status (0-255).
type Command func(ctx *Context) int
