package parser

import (
	"testing"

	"github.com/lifo-sh/lifo/shell/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordText(w *ast.Word) string {
	s := ""
	for _, p := range w.Parts {
		s += p.Text
	}
	return s
}

func simpleWords(t *testing.T, cmd ast.Command) []string {
	t.Helper()
	sc, ok := cmd.(*ast.SimpleCommand)
	require.True(t, ok)
	out := make([]string, len(sc.Words))
	for i, w := range sc.Words {
		out[i] = wordText(w)
	}
	return out
}

func TestParseSimpleCommand(t *testing.T) {
	script, err := Parse("echo hello world")
	require.NoError(t, err)
	require.Len(t, script.Lists, 1)
	list := script.Lists[0]
	require.Len(t, list.Pipelines, 1)
	require.Len(t, list.Pipelines[0].Commands, 1)
	assert.Equal(t, []string{"echo", "hello", "world"}, simpleWords(t, list.Pipelines[0].Commands[0]))
}

func TestParsePipeline(t *testing.T) {
	script, err := Parse("cat file.txt | grep foo | wc -l")
	require.NoError(t, err)
	pipeline := script.Lists[0].Pipelines[0]
	require.Len(t, pipeline.Commands, 3)
	assert.Equal(t, []string{"wc", "-l"}, simpleWords(t, pipeline.Commands[2]))
}

func TestParseAndOrPrecedence(t *testing.T) {
	script, err := Parse("a && b || c")
	require.NoError(t, err)
	list := script.Lists[0]
	require.Len(t, list.Pipelines, 3)
	require.Equal(t, []ast.Connector{ast.And, ast.Or}, list.Connectors)
}

func TestParseBackgroundList(t *testing.T) {
	script, err := Parse("sleep 10 &")
	require.NoError(t, err)
	assert.True(t, script.Lists[0].Background)
}

func TestAmpersandTerminatesList(t *testing.T) {
	script, err := Parse("sleep 10 & jobs")
	require.NoError(t, err)
	require.Len(t, script.Lists, 2)
	assert.True(t, script.Lists[0].Background)
	assert.False(t, script.Lists[1].Background)
}

func TestParseMultipleLists(t *testing.T) {
	script, err := Parse("a; b\nc")
	require.NoError(t, err)
	require.Len(t, script.Lists, 3)
}

func TestParseAssignmentsBeforeCommand(t *testing.T) {
	script, err := Parse("FOO=bar BAZ=qux env")
	require.NoError(t, err)
	cmd := script.Lists[0].Pipelines[0].Commands[0].(*ast.SimpleCommand)
	require.Len(t, cmd.Assignments, 2)
	assert.Equal(t, "FOO", cmd.Assignments[0].Name)
	assert.Equal(t, "bar", wordText(cmd.Assignments[0].Value))
	assert.Equal(t, "BAZ", cmd.Assignments[1].Name)
	assert.Equal(t, "qux", wordText(cmd.Assignments[1].Value))
	assert.Equal(t, []string{"env"}, simpleWords(t, cmd))
}

func TestAssignmentLookingWordAfterFirstWordIsLiteral(t *testing.T) {
	script, err := Parse("echo FOO=bar")
	require.NoError(t, err)
	cmd := script.Lists[0].Pipelines[0].Commands[0].(*ast.SimpleCommand)
	assert.Empty(t, cmd.Assignments)
	assert.Equal(t, []string{"echo", "FOO=bar"}, simpleWords(t, cmd))
}

func TestParseRedirectionsAnyPosition(t *testing.T) {
	script, err := Parse("cmd > out.txt arg1 2>> err.log arg2 < in.txt")
	require.NoError(t, err)
	cmd := script.Lists[0].Pipelines[0].Commands[0].(*ast.SimpleCommand)
	assert.Equal(t, []string{"cmd", "arg1", "arg2"}, simpleWords(t, cmd))
	require.Len(t, cmd.Redirections, 3)
	assert.Equal(t, ast.RedirectOut, cmd.Redirections[0].Kind)
	assert.Equal(t, "out.txt", wordText(cmd.Redirections[0].Target))
	assert.Equal(t, ast.RedirectErrAppend, cmd.Redirections[1].Kind)
	assert.Equal(t, "err.log", wordText(cmd.Redirections[1].Target))
	assert.Equal(t, ast.RedirectIn, cmd.Redirections[2].Kind)
	assert.Equal(t, "in.txt", wordText(cmd.Redirections[2].Target))
}

func TestParseSubshell(t *testing.T) {
	script, err := Parse("(a; b) | c")
	require.NoError(t, err)
	pipeline := script.Lists[0].Pipelines[0]
	require.Len(t, pipeline.Commands, 2)
	sub, ok := pipeline.Commands[0].(*ast.Subshell)
	require.True(t, ok)
	require.Len(t, sub.List.Pipelines, 2)
}

func TestParseNegatedPipeline(t *testing.T) {
	script, err := Parse("! grep foo file.txt")
	require.NoError(t, err)
	assert.True(t, script.Lists[0].Pipelines[0].Negated)
	assert.Equal(t, []string{"grep", "foo", "file.txt"}, simpleWords(t, script.Lists[0].Pipelines[0].Commands[0]))
}

func TestParseEmptyInput(t *testing.T) {
	script, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, script.Lists)
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Parse("echo foo |")
	require.Error(t, err)
	var perr ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Token.Pos.Line)
}

func TestParseUnclosedSubshell(t *testing.T) {
	_, err := Parse("(a; b")
	require.Error(t, err)
}
