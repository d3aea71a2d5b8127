// Package expand implements the shell's word expansion pipeline: brace
// expansion, tilde expansion, parameter/command/arithmetic
// substitution, IFS word splitting, glob expansion against the VFS,
// and quote removal, applied to each word in the fixed order a POSIX
// shell applies them.
package expand

import (
	"strings"

	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/lifo-sh/lifo/shell/lexer"
)

// DefaultIFS is the whitespace word-splitting set used when the
// environment has no IFS binding of its own.
const DefaultIFS = " \t\n"

// Env is the variable/positional-parameter store expansion reads from
// and occasionally writes to (the `${NAME:=default}` form). The
// executor's environment implements this.
type Env interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Positional() []string
	ExitStatus() int
}

// CommandRunner executes a captured command-substitution script and
// returns its captured stdout. The executor implements this; expand
// never runs commands itself, avoiding an import cycle between the
// two packages.
type CommandRunner interface {
	RunCapture(script string) (stdout string, status int, err error)
}

// Context bundles everything a word expansion needs.
type Context struct {
	Env    Env
	Runner CommandRunner
	VFS    *vfs.VFS
	Cwd    string
	IFS    string
}

func (c *Context) ifs() string {
	if c.IFS == "" {
		return DefaultIFS
	}
	return c.IFS
}

// Words expands each word in order, concatenating every word's result
// fields into a single argument list.
func Words(words []*ast.Word, ctx *Context) ([]string, error) {
	var out []string
	for _, w := range words {
		fields, err := Word(w, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

// Word runs the full seven-step expansion over a single word, which
// may fan out into zero, one, or several resulting argument strings.
func Word(w *ast.Word, ctx *Context) ([]string, error) {
	var out []string
	for _, braced := range braceExpandWord(w) {
		home, _ := ctx.Env.Get("HOME")
		tildeExpandWord(braced, home)

		segs, err := expandParts(braced, ctx)
		if err != nil {
			return nil, err
		}

		fields := splitFields(segs, ctx.ifs())
		for _, f := range fields {
			if f.hasRaw {
				if matches, ok := globMatches(ctx.VFS, ctx.Cwd, f.text); ok {
					out = append(out, matches...)
					continue
				}
			}
			out = append(out, f.text)
		}
	}
	return out, nil
}

// segment is one word part after parameter/command/arithmetic
// substitution, still tagged with whether it came from quoted text
// (and so must not be split or globbed).
type segment struct {
	text   string
	quoted bool
}

func expandParts(w *ast.Word, ctx *Context) ([]segment, error) {
	segs := make([]segment, 0, len(w.Parts))
	for _, part := range w.Parts {
		switch part.Kind {
		case lexer.Single:
			segs = append(segs, segment{text: part.Text, quoted: true})
		case lexer.Double:
			text, err := expandSubstitutions(part.Text, ctx)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{text: text, quoted: true})
		default: // Raw
			text, err := expandSubstitutions(part.Text, ctx)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{text: text, quoted: false})
		}
	}
	return segs, nil
}

type field struct {
	text   string
	hasRaw bool
}

// splitFields applies IFS word splitting to the unquoted spans of segs
// while keeping quoted spans intact, mirroring how a shell glues
// literal quoted text to the unquoted tokens next to it. Consecutive
// unquoted IFS bytes collapse to a single field boundary; quoted text
// (even empty) always keeps its field alive.
func splitFields(segs []segment, ifs string) []field {
	var fields []field
	var cur strings.Builder
	hasRaw := false
	started := false

	flush := func() {
		fields = append(fields, field{text: cur.String(), hasRaw: hasRaw})
		cur.Reset()
		hasRaw = false
		started = false
	}

	isIFS := func(b byte) bool { return strings.IndexByte(ifs, b) >= 0 }

	for _, seg := range segs {
		if seg.quoted {
			cur.WriteString(seg.text)
			started = true
			continue
		}
		for i := 0; i < len(seg.text); i++ {
			if isIFS(seg.text[i]) {
				if started || cur.Len() > 0 {
					flush()
				}
				continue
			}
			cur.WriteByte(seg.text[i])
			hasRaw = true
			started = true
		}
	}
	if started || cur.Len() > 0 {
		flush()
	}
	return fields
}
