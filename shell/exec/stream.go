// Package exec implements the shell executor: it walks the shell/ast
// tree produced by shell/parser, drives pipelines and redirections
// over in-memory/VFS-backed streams, dispatches simple commands to
// builtins or the command registry, and registers every dispatched
// command with the process registry. It also supplies the
// command/stream contract every built-in command in the host's
// library is written against.
//
// A goroutine-per-stage/WaitGroup pipeline shape, generalized from
// os.Pipe to an in-memory io.Pipe since lifo's commands are in-process
// Go functions rather than child OS processes, paired with an
// open/validate/write/close sink lifecycle for redirection targets.
package exec

import (
	"bufio"
	"bytes"
	"io"

	"github.com/lifo-sh/lifo/internal/vfs"
)

// streamChunkSize is the size Read() hands back per call when reading
// from a live pipe; callers that want the whole stream use ReadAll.
const streamChunkSize = 4096

// Reader is the input-stream contract handed to every command. Read
// returns one chunk at a time and ok == false once the stream is
// exhausted; ReadAll drains everything remaining as a single string.
type Reader interface {
	Read() (chunk string, ok bool)
	ReadAll() string
}

// Writer is the output-stream contract handed to every command.
type Writer interface {
	Write(s string) (int, error)
}

// Closer is implemented by streams that need a finalization step
// (flushing a redirection target to the VFS, closing a pipe so the
// downstream reader observes EOF). Not every Writer/Reader needs it.
type Closer interface {
	Close() error
}

// bufReader adapts any io.Reader into the command Reader contract.
type bufReader struct {
	r *bufio.Reader
}

// NewReader wraps r as a command Reader.
func NewReader(r io.Reader) Reader {
	return &bufReader{r: bufio.NewReaderSize(r, streamChunkSize)}
}

func (b *bufReader) Read() (string, bool) {
	buf := make([]byte, streamChunkSize)
	n, err := b.r.Read(buf)
	if n == 0 && err != nil {
		return "", false
	}
	return string(buf[:n]), true
}

func (b *bufReader) ReadAll() string {
	data, _ := io.ReadAll(b.r)
	return string(data)
}

// StringReader serves a fixed string as a Reader, the shape stdin
// takes when a command receives a file's full content (e.g. `<`
// redirection or a captured command-substitution input).
func StringReader(s string) Reader {
	return NewReader(bytes.NewReader([]byte(s)))
}

// EmptyReader reads as EOF immediately, standing in for commands that
// have no stdin connected.
func EmptyReader() Reader {
	return StringReader("")
}

// writerFunc adapts a plain io.Writer into the command Writer
// contract.
type writerFunc struct {
	w io.Writer
}

// NewWriter wraps w as a command Writer. If w implements io.Closer,
// the returned Writer implements Closer too.
func NewWriter(w io.Writer) Writer {
	if c, ok := w.(io.Closer); ok {
		return &closingWriterFunc{writerFunc{w: w}, c}
	}
	return &writerFunc{w: w}
}

func (w *writerFunc) Write(s string) (int, error) {
	return w.w.Write([]byte(s))
}

type closingWriterFunc struct {
	writerFunc
	c io.Closer
}

func (w *closingWriterFunc) Close() error { return w.c.Close() }

// CaptureWriter accumulates every Write into an in-memory buffer, the
// sink command substitution reads stdout back from.
type CaptureWriter struct {
	buf bytes.Buffer
}

// NewCaptureWriter constructs an empty CaptureWriter.
func NewCaptureWriter() *CaptureWriter { return &CaptureWriter{} }

func (c *CaptureWriter) Write(s string) (int, error) { return c.buf.WriteString(s) }
func (c *CaptureWriter) String() string              { return c.buf.String() }

// vfsWriter buffers writes in memory and flushes them to a VFS path on
// Close, implementing `>` (truncate) and `>>` (append) redirection
// targets: the VFS has no partial/streaming write primitive
// (WriteFile/AppendFile always take a full byte slice), so a
// redirected command's output is assembled in memory for the
// duration of that command and committed in one VFS call at the end.
type vfsWriter struct {
	v      *vfs.VFS
	path   string
	append bool
	buf    bytes.Buffer
}

// NewVFSWriter opens path on v as a redirection target. append selects
// `>>` semantics over `>` truncation.
func NewVFSWriter(v *vfs.VFS, path string, append bool) Writer {
	return &vfsWriter{v: v, path: path, append: append}
}

func (w *vfsWriter) Write(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *vfsWriter) Close() error {
	if w.append {
		return w.v.AppendFile(w.path, w.buf.Bytes())
	}
	return w.v.WriteFile(w.path, w.buf.Bytes())
}

// NewVFSReader serves a VFS file's full content as a command's stdin,
// implementing `<` redirection. Opening a nonexistent read target
// fails with ENOENT, surfaced at open time rather than deferred to
// the first Read.
func NewVFSReader(v *vfs.VFS, path string) (Reader, error) {
	data, err := v.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return StringReader(string(data)), nil
}

// newStagePipe connects one pipeline stage's stdout to the next
// stage's stdin through an in-memory io.Pipe, so no real file
// descriptors are involved.
func newStagePipe() (Writer, Reader) {
	pr, pw := io.Pipe()
	return NewWriter(pw), NewReader(pr)
}
