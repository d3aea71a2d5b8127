package exec

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifo-sh/lifo/internal/contentstore"
	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/lifo-sh/lifo/procfs"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	logger := discardLogger()
	store := contentstore.New(contentstore.DefaultMaxBytes, logger)
	v := vfs.New(store, logger)
	procs := procfs.NewRegistry(logger)
	jobs := procfs.NewJobTable(procs)
	e := New(v, NewRegistry(), procs, jobs, DefaultEnv(), logger)
	e.Stdout = NewCaptureWriter()
	e.Stderr = NewCaptureWriter()
	return e
}

func stdout(e *Executor) string { return e.Stdout.(*CaptureWriter).String() }
func stderr(e *Executor) string { return e.Stderr.(*CaptureWriter).String() }

// upperCommand uppercases its stdin to stdout, a minimal registered
// command used to exercise pipelines without a real child process.
func upperCommand(ctx *Context) int {
	_, _ = ctx.Stdout.Write(strings.ToUpper(ctx.Stdin.ReadAll()))
	return 0
}

func echoCommand(ctx *Context) int {
	_, _ = ctx.Stdout.Write(strings.Join(ctx.Args[1:], " ") + "\n")
	return 0
}

func sleepyCommand(ctx *Context) int {
	select {
	case <-ctx.Signal.Done():
		return 143
	case <-time.After(50 * time.Millisecond):
		return 0
	}
}

func TestRunSimpleCommand(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)
	status := e.Run("echo hello world")
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", stdout(e))
}

func TestRunPipeline(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)
	e.Registry.Register("upper", upperCommand)
	status := e.Run("echo hi | upper")
	assert.Equal(t, 0, status)
	assert.Equal(t, "HI\n", stdout(e))
}

func TestAndOrConnectors(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)

	status := e.Run("true && echo yes")
	assert.Equal(t, 0, status)
	assert.Equal(t, "yes\n", stdout(e))

	e2 := newTestExecutor(t)
	e2.Registry.Register("echo", echoCommand)
	status = e2.Run("false && echo yes")
	assert.Equal(t, 1, status)
	assert.Empty(t, stdout(e2))

	e3 := newTestExecutor(t)
	e3.Registry.Register("echo", echoCommand)
	status = e3.Run("false || echo fallback")
	assert.Equal(t, 0, status)
	assert.Equal(t, "fallback\n", stdout(e3))
}

func TestRedirectionWritesToVFS(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)
	require.NoError(t, e.VFS.Mkdir("/home/user", vfs.MkdirOptions{Recursive: true}))

	status := e.Run("echo hello > /home/user/out.txt")
	require.Equal(t, 0, status)

	data, err := e.VFS.ReadFile("/home/user/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	status = e.Run("echo again >> /home/user/out.txt")
	require.Equal(t, 0, status)
	data, err = e.VFS.ReadFile("/home/user/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nagain\n", string(data))
}

func TestBackgroundJobVisibleImmediately(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("sleepy", sleepyCommand)

	status := e.Run("sleepy & jobs")
	assert.Equal(t, 0, status)
	assert.Contains(t, stdout(e), "[1]")
	assert.Contains(t, stdout(e), "sleepy")
}

func TestPipelineIntoRedirect(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)
	e.Registry.Register("upper", upperCommand)
	require.NoError(t, e.VFS.Mkdir("/tmp", vfs.MkdirOptions{}))

	status := e.Run("echo hello world | upper > /tmp/out.txt")
	require.Equal(t, 0, status)

	data, err := e.VFS.ReadFile("/tmp/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD\n", string(data))
}

func TestCommandSubstitutionAndArithmetic(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)

	status := e.Run("echo $(echo inner) $((2 + 3 * 4))")
	assert.Equal(t, 0, status)
	assert.Equal(t, "inner 14\n", stdout(e))
}

func TestGlobExpansionInArguments(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)
	require.NoError(t, e.VFS.Mkdir("/a", vfs.MkdirOptions{}))
	require.NoError(t, e.VFS.WriteFile("/a/x.txt", []byte("x")))
	require.NoError(t, e.VFS.WriteFile("/a/y.txt", []byte("y")))
	require.NoError(t, e.VFS.WriteFile("/a/.hidden", []byte("h")))

	status := e.Run("echo /a/*.txt")
	assert.Equal(t, 0, status)
	assert.Equal(t, "/a/x.txt /a/y.txt\n", stdout(e))
}

func TestKillBackgroundJobThenJobsEmpty(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("sleepy", sleepyCommand)

	require.Equal(t, 0, e.Run("sleepy &"))
	require.Equal(t, 0, e.Run("kill %1"))

	// Give the cancelled stage goroutine time to observe the token
	// and transition to zombie.
	time.Sleep(20 * time.Millisecond)

	require.Equal(t, 0, e.Run("jobs")) // reports Done once, reaping the job
	before := stdout(e)
	require.Equal(t, 0, e.Run("jobs"))
	assert.Equal(t, before, stdout(e), "second jobs call must list nothing")
}

func TestCommandNotFoundSuggestsClosestName(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)

	status := e.Run("eco hi")
	assert.Equal(t, 127, status)
	assert.Contains(t, stderr(e), "not found")
	assert.Contains(t, stderr(e), "echo")
}

func TestAliasExpansion(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)

	status := e.Run("alias greet='echo hello'")
	require.Equal(t, 0, status)

	status = e.Run("greet world")
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", stdout(e))
}

func TestExitEndsWholeScript(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("echo", echoCommand)

	status := e.Run("echo before; exit 7; echo after")
	assert.Equal(t, 7, status)
	assert.Equal(t, "before\n", stdout(e))
}

func TestExitInNonFinalPipelineStageOnlyEndsThatStage(t *testing.T) {
	e := newTestExecutor(t)
	e.Registry.Register("upper", upperCommand)
	e.Registry.Register("echo", echoCommand)
	exiter := func(ctx *Context) int {
		_, _ = ctx.Stdout.Write("partial\n")
		panic(exitSignal{code: 3})
	}
	e.Registry.Register("exiter", exiter)

	status := e.Run("exiter | upper; echo survived")
	assert.Equal(t, 0, status)
	assert.Contains(t, stdout(e), "PARTIAL")
	assert.Contains(t, stdout(e), "survived")
}

func TestBuiltinTestFileChecks(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.VFS.Mkdir("/home/user", vfs.MkdirOptions{Recursive: true}))
	require.NoError(t, e.VFS.WriteFile("/home/user/f.txt", []byte("hi")))

	assert.Equal(t, 0, e.Run("test -f /home/user/f.txt"))
	assert.Equal(t, 1, e.Run("test -d /home/user/f.txt"))
	assert.Equal(t, 0, e.Run("[ -d /home/user ]"))
	assert.Equal(t, 0, e.Run("test 1 -lt 2"))
	assert.Equal(t, 1, e.Run("test foo = bar"))
	assert.Equal(t, 0, e.Run("test foo != bar -a 1 -eq 1"))
}

func TestCdAndPwd(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.VFS.Mkdir("/home/user/proj", vfs.MkdirOptions{Recursive: true}))

	status := e.Run("cd /home/user/proj; pwd")
	assert.Equal(t, 0, status)
	assert.Equal(t, "/home/user/proj\n", stdout(e))
}
