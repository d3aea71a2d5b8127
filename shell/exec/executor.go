package exec

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/lifo-sh/lifo/procfs"
	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/lifo-sh/lifo/shell/expand"
	"github.com/lifo-sh/lifo/shell/parser"
)

// maxAliasDepth bounds alias-substitution recursion so `alias ls=ls`
// (or a longer cycle) cannot hang the executor.
const maxAliasDepth = 16

// Executor walks a shell/ast tree and drives pipelines, redirections,
// and builtin/registry dispatch: a top-level dispatcher combined with
// per-stage stream wiring for each pipeline member.
type Executor struct {
	VFS      *vfs.VFS
	Registry *Registry
	Procs    *procfs.Registry
	Jobs     *procfs.JobTable
	Env      *Env
	Aliases  *Aliases
	Cwd      string

	Stdout Writer
	Stderr Writer
	Stdin  Reader

	logger *slog.Logger
}

// New constructs an Executor wired to the given VFS and process table,
// with the command registry and environment an embedder supplies.
func New(v *vfs.VFS, registry *Registry, procs *procfs.Registry, jobs *procfs.JobTable, env *Env, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	cwd, _ := env.Get("PWD")
	if cwd == "" {
		cwd = "/"
	}
	return &Executor{
		VFS: v, Registry: registry, Procs: procs, Jobs: jobs, Env: env, Aliases: NewAliases(),
		Cwd: cwd, Stdout: NewWriter(discardWriter{}), Stderr: NewWriter(discardWriter{}), Stdin: EmptyReader(),
		logger: logger,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Run parses and executes a full script against the executor's
// top-level stdio, returning the script's final exit status. An
// `exit` builtin anywhere in the script unwinds straight here via
// exitSignal rather than threading a stop flag through every call in
// the execution chain.
func (e *Executor) Run(input string) (status int) {
	script, err := parser.Parse(input)
	if err != nil {
		fmt.Fprintf(stderrSink{e.Stderr}, "sh: %v\n", err)
		e.Env.SetExitStatus(2)
		return 2
	}
	defer func() {
		if r := recover(); r != nil {
			if es, ok := r.(exitSignal); ok {
				status = es.code
				return
			}
			panic(r)
		}
	}()
	status = e.execScript(script, e.Stdin, e.Stdout, e.Stderr)
	return status
}

type stderrSink struct{ w Writer }

func (s stderrSink) Write(p []byte) (int, error) { return s.w.Write(string(p)) }

// RunCapture implements shell/expand.CommandRunner: it parses and runs
// script with a fresh captured-stdout stream, trimming is the
// caller's (expand's) job. Used for `$( ... )` command substitution.
func (e *Executor) RunCapture(script string) (out string, status int, err error) {
	parsed, perr := parser.Parse(script)
	if perr != nil {
		return "", 2, perr
	}
	cap := NewCaptureWriter()
	defer func() {
		if r := recover(); r != nil {
			if es, ok := r.(exitSignal); ok {
				status = es.code
				out = cap.String()
				return
			}
			panic(r)
		}
	}()
	status = e.execScript(parsed, EmptyReader(), cap, e.Stderr)
	return cap.String(), status, nil
}

func (e *Executor) execScript(script *ast.Script, stdin Reader, stdout, stderr Writer) int {
	status := 0
	for _, list := range script.Lists {
		status = e.execList(list, stdin, stdout, stderr)
	}
	return status
}

// execList runs one &&/||-chained list of pipelines, gating each entry
// on the previous entry's connector and status. A background list
// spawns detached and returns 0 immediately without waiting.
func (e *Executor) execList(list *ast.List, stdin Reader, stdout, stderr Writer) int {
	if list.Background {
		e.spawnBackground(list, stdout, stderr)
		return 0
	}
	status := 0
	for i, pl := range list.Pipelines {
		run := true
		if i > 0 {
			switch list.Connectors[i-1] {
			case ast.And:
				run = status == 0
			case ast.Or:
				run = status != 0
			}
		}
		if !run {
			continue
		}
		status, _ = e.runPipeline(pl, stdin, stdout, stderr)
		e.Env.SetExitStatus(status)
	}
	return status
}

// spawnBackground runs list's pipelines detached from the caller,
// registering one job covering every stage PID the list's pipelines
// produce before returning, so a `jobs` call issued immediately after
// `cmd &` observes it.
func (e *Executor) spawnBackground(list *ast.List, stdout, stderr Writer) {
	var allPids []int
	status := 0
	for i, pl := range list.Pipelines {
		run := true
		if i > 0 {
			switch list.Connectors[i-1] {
			case ast.And:
				run = status == 0
			case ast.Or:
				run = status != 0
			}
		}
		if !run {
			continue
		}
		st, pids, wait := e.startPipeline(pl, EmptyReader(), stdout, stderr)
		allPids = append(allPids, pids...)
		status = st
		if wait != nil {
			go wait()
		}
	}
	if len(allPids) > 0 {
		e.Jobs.Add(describeList(list), allPids)
	}
}

// runPipeline runs pl to completion and returns its exit status (the
// last stage's status, inverted by a leading `!`) along with every
// dispatched stage's PID.
func (e *Executor) runPipeline(pl *ast.Pipeline, stdin Reader, stdout, stderr Writer) (int, []int) {
	status, pids, wait := e.startPipeline(pl, stdin, stdout, stderr)
	if wait != nil {
		status = wait()
	}
	if pl.Negated {
		status = negateStatus(status)
	}
	return status, pids
}

// describeList renders list's unexpanded source words back into a
// single line, the text the `jobs` builtin prints next to a job id.
// It is a best-effort reconstruction from the AST, not a byte-exact
// echo of what the user typed.
func describeList(list *ast.List) string {
	var parts []string
	for i, pl := range list.Pipelines {
		parts = append(parts, describePipeline(pl))
		if i < len(list.Connectors) {
			if list.Connectors[i] == ast.And {
				parts = append(parts, "&&")
			} else if list.Connectors[i] == ast.Or {
				parts = append(parts, "||")
			}
		}
	}
	line := strings.Join(parts, " ")
	if list.Background {
		line += " &"
	}
	return line
}

func describePipeline(pl *ast.Pipeline) string {
	stages := make([]string, len(pl.Commands))
	for i, c := range pl.Commands {
		stages[i] = describeCommand(c)
	}
	line := strings.Join(stages, " | ")
	if pl.Negated {
		line = "! " + line
	}
	return line
}

func describeCommand(c ast.Command) string {
	switch v := c.(type) {
	case *ast.SimpleCommand:
		words := make([]string, len(v.Words))
		for i, w := range v.Words {
			words[i] = describeWord(w)
		}
		return strings.Join(words, " ")
	case *ast.Subshell:
		return "(subshell)"
	default:
		return ""
	}
}

func describeWord(w *ast.Word) string {
	var sb strings.Builder
	for _, p := range w.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func negateStatus(status int) int {
	if status == 0 {
		return 1
	}
	return 0
}

// startPipeline prepares every stage of pl (expansion, redirection,
// dispatch resolution, PID registration) synchronously in stage
// order — so a caller can see the full PID set the instant this
// returns, mirroring a real shell's fork-before-wait split — then
// launches every stage (even a lone single-stage command) in its own
// goroutine connected by in-memory pipes. wait is nil only for an
// empty pipeline; otherwise call it to block for completion and
// obtain the pipeline's final (last-stage) exit status. A caller that
// wants synchronous behavior (the common foreground case) just calls
// wait() immediately; spawnBackground instead hands it to `go wait()`
// so a single-command background job doesn't block the dispatching
// goroutine until it finishes.
func (e *Executor) startPipeline(pl *ast.Pipeline, stdin Reader, finalStdout, stderr Writer) (status int, pids []int, wait func() int) {
	n := len(pl.Commands)
	if n == 0 {
		return 0, nil, nil
	}

	stages := make([]*preparedStage, n)
	stageStdin := make([]Reader, n)
	stageStdout := make([]Writer, n)
	stageStdin[0] = stdin
	stageStdout[n-1] = finalStdout

	pipeWriters := make([]Writer, n-1)
	for i := 0; i < n-1; i++ {
		w, r := newStagePipe()
		pipeWriters[i] = w
		stageStdout[i] = w
		stageStdin[i+1] = r
	}

	for i := 0; i < n; i++ {
		ps, err := e.prepareStage(pl.Commands[i], stageStdin[i], stageStdout[i], stderr)
		if err != nil {
			ps = &preparedStage{kind: stageError, err: err}
		}
		stages[i] = ps
		if ps.pid != 0 {
			pids = append(pids, ps.pid)
		}
	}

	results := make([]int, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			// A non-final pipeline stage effectively runs in its own
			// subshell: `exit` inside it only terminates that stage,
			// mirroring how a real shell forks each non-last pipeline
			// member into a child process.
			func() {
				defer func() {
					if r := recover(); r != nil {
						if es, ok := r.(exitSignal); ok {
							results[i] = es.code
							return
						}
						panic(r)
					}
				}()
				results[i] = e.runPreparedStage(stages[i])
			}()
			if i < n-1 {
				if c, ok := pipeWriters[i].(Closer); ok {
					_ = c.Close()
				}
			}
		}()
	}
	return 0, pids, func() int {
		wg.Wait()
		return results[n-1]
	}
}

type stageKind int

const (
	stageBuiltin stageKind = iota
	stageRegistry
	stageSubshell
	stageNotFound
	stageError
)

// preparedStage is the fully-resolved, not-yet-run form of one
// pipeline stage: expansion, redirection, and dispatch target are all
// decided before any goroutine runs, so PID allocation (for
// stageRegistry) happens in program order.
type preparedStage struct {
	kind    stageKind
	name    string
	builtin builtinFunc
	cmdFn   Command
	cctx    *Context
	closers []Closer
	pid     int

	list      *ast.List
	subStdin  Reader
	subStdout Writer
	subStderr Writer

	err error
}

func (e *Executor) prepareStage(cmd ast.Command, stdin Reader, stdout, stderr Writer) (*preparedStage, error) {
	if sub, ok := cmd.(*ast.Subshell); ok {
		return &preparedStage{kind: stageSubshell, list: sub.List, subStdin: stdin, subStdout: stdout, subStderr: stderr}, nil
	}
	simple := cmd.(*ast.SimpleCommand)
	return e.prepareSimple(simple, stdin, stdout, stderr)
}

func (e *Executor) prepareSimple(cmd *ast.SimpleCommand, stdin Reader, stdout, stderr Writer) (*preparedStage, error) {
	ectx := &expand.Context{Env: e.Env, Runner: e, VFS: e.VFS, Cwd: e.Cwd}

	assigns := make(map[string]string, len(cmd.Assignments))
	for _, a := range cmd.Assignments {
		fields, err := expand.Word(a.Value, ectx)
		if err != nil {
			return nil, err
		}
		value := ""
		if len(fields) > 0 {
			value = fields[0]
		}
		assigns[a.Name] = value
	}

	words, err := expand.Words(cmd.Words, ectx)
	if err != nil {
		return nil, err
	}

	if len(words) == 0 {
		for name, value := range assigns {
			e.Env.Set(name, value)
		}
		return &preparedStage{kind: stageBuiltin, builtin: func(*Executor, *Context) int { return 0 }, cctx: &Context{}}, nil
	}

	words = e.expandAliases(words)

	streams, err := applyRedirections(cmd, ectx, stdin, stdout, stderr)
	if err != nil {
		return nil, err
	}

	name := words[0]
	childEnv := e.Env.Exported()
	for k, v := range assigns {
		childEnv[k] = v
	}

	cctx := &Context{
		Args: words, Env: childEnv, Cwd: e.Cwd, VFS: e.VFS,
		Stdout: streams.stdout, Stderr: streams.stderr, Stdin: streams.stdin,
	}

	if b, ok := builtins[name]; ok {
		return &preparedStage{kind: stageBuiltin, name: name, builtin: b, cctx: cctx, closers: streams.closers}, nil
	}

	cmdFn, ok := e.Registry.Lookup(name)
	if !ok {
		return &preparedStage{kind: stageNotFound, name: name, cctx: cctx, closers: streams.closers}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cctx.Signal = CancelToken{ctx: ctx}
	proc := e.Procs.Register(procfs.RegisterOptions{
		PPID: procfs.ShellPID, Command: name, Args: words[1:], Cwd: e.Cwd,
		Env: childEnv, IsForeground: true, Cancel: procfs.CancelFunc(cancel),
	})
	return &preparedStage{kind: stageRegistry, name: name, cmdFn: cmdFn, cctx: cctx, closers: streams.closers, pid: proc.PID}, nil
}

func (e *Executor) runPreparedStage(ps *preparedStage) int {
	defer func() {
		for _, c := range ps.closers {
			_ = c.Close()
		}
	}()

	switch ps.kind {
	case stageError:
		fmt.Fprintf(stderrSink{e.Stderr}, "sh: %v\n", ps.err)
		return 1
	case stageSubshell:
		return e.execList(ps.list, ps.subStdin, ps.subStdout, ps.subStderr)
	case stageBuiltin:
		return ps.builtin(e, ps.cctx)
	case stageNotFound:
		msg := ps.name + ": command not found"
		if sug := e.suggest(ps.name); sug != "" {
			msg += " (did you mean " + sug + "?)"
		}
		fmt.Fprintln(stderrSink{ps.cctx.Stderr}, msg)
		return 127
	case stageRegistry:
		status := ps.cmdFn(ps.cctx)
		exitCode := status
		_ = e.Procs.UpdateStatus(ps.pid, procfs.Zombie, &exitCode)
		return status
	default:
		return 1
	}
}

// expandAliases substitutes words[0] through the alias table,
// re-splitting the replacement text on whitespace and prepending it
// to the remaining words, following chains up to maxAliasDepth to
// guard against a cycle.
func (e *Executor) expandAliases(words []string) []string {
	seen := map[string]bool{}
	for depth := 0; depth < maxAliasDepth; depth++ {
		if len(words) == 0 {
			return words
		}
		val, ok := e.Aliases.Get(words[0])
		if !ok || seen[words[0]] {
			return words
		}
		seen[words[0]] = true
		replacement := splitFieldsSimple(val)
		words = append(replacement, words[1:]...)
	}
	return words
}

func splitFieldsSimple(s string) []string {
	var out []string
	var cur []byte
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, s[i])
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// suggest returns the closest builtin or registered command name to a
// miss, for the "command not found: did you mean ..." enrichment.
// Ranking is entirely fuzzysearch's own RankFindFold, not a
// hand-rolled distance metric.
func (e *Executor) suggest(name string) string {
	candidates := append(append([]string{}, e.Registry.List()...), builtinNames()...)
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
