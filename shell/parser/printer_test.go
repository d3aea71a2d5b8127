package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/lifo-sh/lifo/shell/ast"
)

// printScript renders a parsed script back to shell source. It is a
// deterministic pretty-printer for round-trip testing: parsing its
// output must yield the same AST (whitespace and comments aside).
func printScript(s *ast.Script) string {
	lists := make([]string, len(s.Lists))
	for i, l := range s.Lists {
		lists[i] = printList(l)
	}
	return strings.Join(lists, "; ")
}

func printList(l *ast.List) string {
	var b strings.Builder
	for i, pl := range l.Pipelines {
		if i > 0 {
			switch l.Connectors[i-1] {
			case ast.And:
				b.WriteString(" && ")
			case ast.Or:
				b.WriteString(" || ")
			case ast.None:
				b.WriteString("; ")
			}
		}
		b.WriteString(printPipeline(pl))
	}
	if l.Background {
		b.WriteString(" &")
	}
	return b.String()
}

func printPipeline(pl *ast.Pipeline) string {
	stages := make([]string, len(pl.Commands))
	for i, c := range pl.Commands {
		stages[i] = printCommand(c)
	}
	line := strings.Join(stages, " | ")
	if pl.Negated {
		line = "! " + line
	}
	return line
}

func printCommand(c ast.Command) string {
	switch v := c.(type) {
	case *ast.Subshell:
		return "(" + printList(v.List) + ")"
	case *ast.SimpleCommand:
		var parts []string
		for _, a := range v.Assignments {
			parts = append(parts, a.Name+"="+wordText(a.Value))
		}
		for _, w := range v.Words {
			parts = append(parts, wordText(w))
		}
		for _, r := range v.Redirections {
			parts = append(parts, redirectOp(r.Kind)+" "+wordText(r.Target))
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func redirectOp(k ast.RedirectKind) string {
	switch k {
	case ast.RedirectOut:
		return ">"
	case ast.RedirectAppend:
		return ">>"
	case ast.RedirectIn:
		return "<"
	case ast.RedirectErr:
		return "2>"
	case ast.RedirectErrAppend:
		return "2>>"
	case ast.RedirectAll:
		return "&>"
	default:
		return ""
	}
}

func astDiff(a, b *ast.Script) string {
	return cmp.Diff(a, b,
		cmpopts.IgnoreFields(ast.Word{}, "Pos"),
		cmpopts.IgnoreFields(ast.SimpleCommand{}, "Pos"),
		cmpopts.IgnoreFields(ast.Subshell{}, "Pos"),
	)
}

func TestPrintParseIdempotence(t *testing.T) {
	inputs := []string{
		"echo hello world",
		"cat f.txt | grep foo | wc -l",
		"a && b || c",
		"sleep 10 &",
		"FOO=bar env",
		"cmd arg1 arg2 > out.txt 2>> err.log < in.txt",
		"! grep foo f.txt",
		"(a; b) | c",
		"a; b; c",
	}
	for _, input := range inputs {
		first, err := Parse(input)
		require.NoError(t, err, input)

		printed := printScript(first)
		second, err := Parse(printed)
		require.NoError(t, err, printed)

		if diff := astDiff(first, second); diff != "" {
			t.Errorf("AST changed after print/reparse of %q (printed as %q):\n%s", input, printed, diff)
		}
	}
}
