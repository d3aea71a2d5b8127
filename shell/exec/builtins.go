package exec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lifo-sh/lifo/procfs"
	"github.com/lifo-sh/lifo/shell/parser"
)

// builtinFunc is a shell builtin: unlike a registered Command, it runs
// inline in the executor and can mutate executor-wide state (cwd,
// environment, aliases, job table) that a dispatched command cannot
// reach.
type builtinFunc func(e *Executor, ctx *Context) int

// builtins is the fixed builtin table: a name->handler map consulted
// before falling through to a registered command, covering the
// POSIX-ish builtin surface (cd, export, alias, job control, test/[,
// source/., kill).
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"cd":      builtinCd,
		"pwd":     builtinPwd,
		"export":  builtinExport,
		"unset":   builtinUnset,
		"alias":   builtinAlias,
		"unalias": builtinUnalias,
		"exit":    builtinExit,
		"jobs":    builtinJobs,
		"fg":      builtinFg,
		"bg":      builtinBg,
		"kill":    builtinKill,
		":":       builtinTrue,
		"true":    builtinTrue,
		"false":   builtinFalse,
		"test":    builtinTest,
		"[":       builtinBracket,
		"source":  builtinSource,
		".":       builtinSource,
	}
}

func builtinNames() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func println(w Writer, s string) {
	_, _ = w.Write(s + "\n")
}

func errf(w Writer, format string, args ...any) {
	_, _ = w.Write(fmt.Sprintf(format, args...) + "\n")
}

// builtinCd implements `cd [dir]`, `cd -` (OLDPWD toggle), and bare
// `cd` (home).
func builtinCd(e *Executor, ctx *Context) int {
	var target string
	if len(ctx.Args) < 2 {
		target, _ = e.Env.Get("HOME")
		if target == "" {
			target = "/"
		}
	} else if ctx.Args[1] == "-" {
		old, ok := e.Env.Get("OLDPWD")
		if !ok {
			errf(ctx.Stderr, "cd: OLDPWD not set")
			return 1
		}
		target = old
		println(ctx.Stdout, target)
	} else {
		target = ctx.Args[1]
	}

	newCwd := resolvePath(e.Cwd, target)
	st, err := e.VFS.Stat(newCwd)
	if err != nil {
		errf(ctx.Stderr, "cd: %s: no such file or directory", target)
		return 1
	}
	if !st.IsDir {
		errf(ctx.Stderr, "cd: %s: not a directory", target)
		return 1
	}

	e.Env.Set("OLDPWD", e.Cwd)
	e.Cwd = newCwd
	e.Env.Set("PWD", newCwd)
	return 0
}

func builtinPwd(e *Executor, ctx *Context) int {
	println(ctx.Stdout, e.Cwd)
	return 0
}

// builtinExport implements `export` (list) and `export NAME[=VALUE]`,
// marking a variable for inheritance into dispatched commands' env.
func builtinExport(e *Executor, ctx *Context) int {
	if len(ctx.Args) < 2 {
		all := e.Env.All()
		names := make([]string, 0, len(all))
		for n := range all {
			if e.Env.IsExported(n) {
				names = append(names, n)
			}
		}
		sort.Strings(names)
		for _, n := range names {
			println(ctx.Stdout, fmt.Sprintf("export %s=%s", n, all[n]))
		}
		return 0
	}
	status := 0
	for _, arg := range ctx.Args[1:] {
		name, value, hasValue := strings.Cut(arg, "=")
		if !isValidVarName(name) {
			errf(ctx.Stderr, "export: %s: not a valid identifier", name)
			status = 1
			continue
		}
		e.Env.Export(name, value, hasValue)
	}
	return status
}

func isValidVarName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func builtinUnset(e *Executor, ctx *Context) int {
	for _, name := range ctx.Args[1:] {
		e.Env.Unset(name)
	}
	return 0
}

// builtinAlias implements `alias` (list), `alias name` (lookup), and
// `alias name=value` (define).
func builtinAlias(e *Executor, ctx *Context) int {
	if len(ctx.Args) < 2 {
		all := e.Aliases.List()
		names := make([]string, 0, len(all))
		for n := range all {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			println(ctx.Stdout, fmt.Sprintf("alias %s='%s'", n, all[n]))
		}
		return 0
	}
	status := 0
	for _, arg := range ctx.Args[1:] {
		name, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			v, ok := e.Aliases.Get(name)
			if !ok {
				errf(ctx.Stderr, "alias: %s: not found", name)
				status = 1
				continue
			}
			println(ctx.Stdout, fmt.Sprintf("alias %s='%s'", name, v))
			continue
		}
		e.Aliases.Set(name, value)
	}
	return status
}

func builtinUnalias(e *Executor, ctx *Context) int {
	status := 0
	for _, name := range ctx.Args[1:] {
		if _, ok := e.Aliases.Get(name); !ok {
			errf(ctx.Stderr, "unalias: %s: not found", name)
			status = 1
			continue
		}
		e.Aliases.Unset(name)
	}
	return status
}

// exitSignal is a panic value used only to unwind a running script
// back to Run/RunCapture when `exit` is invoked mid-pipeline; it never
// escapes the exec package.
type exitSignal struct{ code int }

func builtinExit(e *Executor, ctx *Context) int {
	code := 0
	if len(ctx.Args) > 1 {
		if n, err := strconv.Atoi(ctx.Args[1]); err == nil {
			code = n & 0xFF
		}
	}
	panic(exitSignal{code: code})
}

// builtinJobs lists background jobs, formatted "[id] Status command".
// A job whose last stage has exited prints as Done exactly once: its
// zombie PIDs are reaped and its table entry dropped right after
// being reported, so the next `jobs` no longer lists it.
func builtinJobs(e *Executor, ctx *Context) int {
	for _, j := range e.Jobs.GetBackgroundJobs() {
		status := procfs.Running
		if len(j.PIDs) > 0 {
			if p, ok := e.Procs.Lookup(j.PIDs[len(j.PIDs)-1]); ok {
				status = p.Status
			}
		}
		println(ctx.Stdout, j.StatusLine(status))
		if status == procfs.Zombie {
			for _, pid := range j.PIDs {
				e.Procs.Reap(pid)
			}
			e.Jobs.Reap(j.ID)
		}
	}
	return 0
}

// builtinFg/builtinBg resolve a job/pid spec ("%N"/"%%") and report
// its status; lifo has no terminal to actually foreground a job onto,
// so both simply surface the resolved process's state.
func builtinFg(e *Executor, ctx *Context) int {
	return resolveAndReport(e, ctx, "fg")
}

func builtinBg(e *Executor, ctx *Context) int {
	return resolveAndReport(e, ctx, "bg")
}

func resolveAndReport(e *Executor, ctx *Context, which string) int {
	spec := "%%"
	if len(ctx.Args) > 1 {
		spec = ctx.Args[1]
	}
	pid, err := e.Jobs.ResolveSpec(spec)
	if err != nil {
		errf(ctx.Stderr, "%s: %v", which, err)
		return 1
	}
	p, ok := e.Procs.Lookup(pid)
	if !ok {
		errf(ctx.Stderr, "%s: no such process", which)
		return 1
	}
	println(ctx.Stdout, fmt.Sprintf("[%d] %s %s", p.PID, p.Status, p.Command))
	return 0
}

// builtinKill implements `kill [-SIGNAL] %job|pid` against the
// registry's named-signal table.
func builtinKill(e *Executor, ctx *Context) int {
	if len(ctx.Args) < 2 {
		errf(ctx.Stderr, "kill: usage: kill [-signal] pid|%%job")
		return 1
	}
	args := ctx.Args[1:]
	sig := procfs.SIGTERM
	if strings.HasPrefix(args[0], "-") {
		name := strings.ToUpper(strings.TrimPrefix(args[0], "-"))
		sig = procfs.Signal(name)
		args = args[1:]
	}
	if len(args) == 0 {
		errf(ctx.Stderr, "kill: missing pid|%%job operand")
		return 1
	}
	status := 0
	for _, spec := range args {
		pid, err := e.Jobs.ResolveSpec(spec)
		if err != nil {
			errf(ctx.Stderr, "kill: %v", err)
			status = 1
			continue
		}
		if err := e.Procs.Kill(pid, sig); err != nil {
			errf(ctx.Stderr, "kill: %v", err)
			status = 1
		}
	}
	return status
}

func builtinTrue(e *Executor, ctx *Context) int  { return 0 }
func builtinFalse(e *Executor, ctx *Context) int { return 1 }

// builtinSource implements `source file`/`. file`: reads a VFS path
// and runs it as a script in the current executor (sharing cwd, env,
// and aliases, unlike a dispatched registry command).
func builtinSource(e *Executor, ctx *Context) int {
	if len(ctx.Args) < 2 {
		errf(ctx.Stderr, "source: filename required")
		return 2
	}
	path := resolvePath(e.Cwd, ctx.Args[1])
	data, err := e.VFS.ReadFile(path)
	if err != nil {
		errf(ctx.Stderr, "source: %v", err)
		return 1
	}
	return e.execScriptText(string(data), ctx.Stdin, ctx.Stdout, ctx.Stderr)
}

// execScriptText parses and runs src against the given streams,
// reusing the executor's own parse+run path.
func (e *Executor) execScriptText(src string, stdin Reader, stdout, stderr Writer) int {
	script, err := parser.Parse(src)
	if err != nil {
		errf(stderr, "sh: %v", err)
		return 2
	}
	return e.execScript(script, stdin, stdout, stderr)
}
