// Package ast defines the syntax tree a shell script parses into:
// Script, List, Pipeline, and SimpleCommand, plus the redirection and
// assignment nodes attached to a simple command.
package ast

import "github.com/lifo-sh/lifo/shell/lexer"

// Connector is how one List entry's pipeline relates to the next.
type Connector int

const (
	// None marks the last entry in a List: nothing follows it.
	None Connector = iota
	And            // &&
	Or             // ||
)

// Script is the root node: a sequence of top-level lists, one per
// line/semicolon-terminated group of connected pipelines.
type Script struct {
	Lists []*List
}

// List is a chain of pipelines joined by && / ||, optionally run in
// the background.
type List struct {
	Pipelines  []*Pipeline
	Connectors []Connector // len == len(Pipelines)-1, Connectors[i] joins Pipelines[i] to Pipelines[i+1]
	Background bool
}

// Pipeline is one or more commands connected by |, with stdout of each
// feeding stdin of the next.
type Pipeline struct {
	Commands []Command
	Negated  bool // leading '!' negates the pipeline's exit status
}

// Command is a single stage of a Pipeline: either a SimpleCommand or a
// parenthesized Subshell grouping its own List.
type Command interface {
	commandNode()
}

// Subshell is a `( list )` group, supplementing the grammar so the
// lexer's otherwise-unused LParen/RParen tokens have a grammar slot: a
// parenthesized list runs as its own pipeline stage.
type Subshell struct {
	List *List
	Pos  lexer.Position
}

func (*Subshell) commandNode() {}

// RedirectKind identifies which redirection operator produced a
// Redirection node.
type RedirectKind int

const (
	RedirectOut RedirectKind = iota
	RedirectAppend
	RedirectIn
	RedirectErr
	RedirectErrAppend
	RedirectAll
)

// Redirection attaches a stream redirect to a SimpleCommand. Target is
// the unexpanded word following the operator.
type Redirection struct {
	Kind   RedirectKind
	Target *Word
}

// Assignment is a NAME=VALUE binding collected before a simple
// command's first regular word; it becomes a command-local
// environment variable rather than a persistent shell variable.
type Assignment struct {
	Name  string
	Value *Word
}

// Word is an unexpanded word: the parts the lexer produced, carried
// forward unchanged until the expander processes them.
type Word struct {
	Parts []lexer.WordPart
	Pos   lexer.Position
}

// SimpleCommand is the leaf node: a command name, its arguments,
// local assignments, and redirections.
type SimpleCommand struct {
	Assignments  []Assignment
	Words        []*Word
	Redirections []Redirection
	Pos          lexer.Position
}

func (*SimpleCommand) commandNode() {}
