package main

import (
	"strings"

	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/lifo-sh/lifo/shell/exec"
)

// registerSampleCommands wires a minimal demonstration set onto the
// command registry, showing how a host library plugs into the
// contract a command is written against; a full coreutils-style
// library of built-ins is left to embedders.
func registerSampleCommands(r *exec.Registry) {
	r.Register("echo", cmdEcho)
	r.Register("cat", cmdCat)
}

func cmdEcho(ctx *exec.Context) int {
	_, _ = ctx.Stdout.Write(strings.Join(ctx.Args[1:], " ") + "\n")
	return 0
}

func cmdCat(ctx *exec.Context) int {
	if len(ctx.Args) < 2 {
		_, _ = ctx.Stdout.Write(ctx.Stdin.ReadAll())
		return 0
	}
	status := 0
	for _, arg := range ctx.Args[1:] {
		path := arg
		if !strings.HasPrefix(path, "/") {
			path = vfs.Join(ctx.Cwd, path)
		} else {
			path = vfs.Normalize(path)
		}
		data, err := ctx.VFS.ReadFile(path)
		if err != nil {
			_, _ = ctx.Stderr.Write("cat: " + arg + ": " + err.Error() + "\n")
			status = 1
			continue
		}
		_, _ = ctx.Stdout.Write(string(data))
	}
	return status
}
